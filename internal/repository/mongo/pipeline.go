package mongo

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/surfcat/gasdb/internal/domain/query"
)

var operators = map[query.Op]string{
	query.OpEq:     "$eq",
	query.OpIn:     "$in",
	query.OpLt:     "$lt",
	query.OpLte:    "$lte",
	query.OpGt:     "$gt",
	query.OpGte:    "$gte",
	query.OpExists: "$exists",
}

// buildPipeline translates a spec into [$match, $sample?, $project?].
func buildPipeline(spec query.Spec) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: buildFilter(spec.Conditions())}}}
	if n := spec.Sample(); n > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$sample", Value: bson.M{"size": n}}})
	}
	if spec.Projected() {
		pipeline = append(pipeline, bson.D{{Key: "$project", Value: buildProjection(spec.Projections())}})
	}
	return pipeline
}

// buildFilter groups conditions by path into operator documents. Two
// conditions with the same path and operator cannot share a document, so the
// later ones go into an $and clause.
func buildFilter(conds []query.Condition) bson.M {
	filter := bson.M{}
	var and bson.A
	for _, c := range conds {
		op := operators[c.Op]
		ops, _ := filter[c.Path].(bson.M)
		if ops == nil {
			ops = bson.M{}
			filter[c.Path] = ops
		}
		if _, dup := ops[op]; dup {
			and = append(and, bson.M{c.Path: bson.M{op: c.Value}})
			continue
		}
		ops[op] = c.Value
	}
	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}

// buildProjection suppresses _id; specs that need the storage id project it
// under another name.
func buildProjection(ps []query.Projection) bson.D {
	proj := bson.D{{Key: "_id", Value: 0}}
	for _, p := range ps {
		var expr any = "$" + p.Path
		for _, idx := range p.Elements {
			expr = bson.M{"$arrayElemAt": bson.A{expr, idx}}
		}
		proj = append(proj, bson.E{Key: p.Field, Value: expr})
	}
	return proj
}
