package gasdb

import "github.com/surfcat/gasdb/internal/domain/query"

// Condition restricts fetched documents by the value at a dotted path.
type Condition = query.Condition

// Projection copies the value at a dotted path into an output field.
type Projection = query.Projection

// Eq matches documents whose path equals v.
func Eq(path string, v any) Condition { return Condition{Path: path, Op: query.OpEq, Value: v} }

// In matches documents whose path equals one of vs.
func In(path string, vs ...any) Condition { return Condition{Path: path, Op: query.OpIn, Value: vs} }

// Lt matches documents whose path is below v.
func Lt(path string, v any) Condition { return Condition{Path: path, Op: query.OpLt, Value: v} }

// Lte matches documents whose path is at most v.
func Lte(path string, v any) Condition { return Condition{Path: path, Op: query.OpLte, Value: v} }

// Gt matches documents whose path is above v.
func Gt(path string, v any) Condition { return Condition{Path: path, Op: query.OpGt, Value: v} }

// Gte matches documents whose path is at least v.
func Gte(path string, v any) Condition { return Condition{Path: path, Op: query.OpGte, Value: v} }

// Exists matches documents that carry path, or lack it when present is false.
func Exists(path string, present bool) Condition {
	return Condition{Path: path, Op: query.OpExists, Value: present}
}
