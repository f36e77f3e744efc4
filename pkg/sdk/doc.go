// Package gasdb reconciles adsorption simulation results with surrogate
// estimates and with the catalog of candidate adsorption sites.
//
// Documents live in MongoDB, in Redis/Valkey as RedisJSON values, or in a
// SQLite snapshot taken with Client.Snapshot.
//
//	client, _ := gasdb.New(ctx, gasdb.WithMongo("mongodb://localhost:27017", "gasdb"))
//	defer client.Close()
//
//	todo, _ := client.Unsimulated(ctx, "CO")
//	sites, _ := client.LowCoverage(ctx, "CO", gasdb.WithModel("model0"))
//
// Fingerprints can be computed without a store:
//
//	fp, _ := gasdb.Fingerprint(doc, "energy")
package gasdb
