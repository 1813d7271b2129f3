// Command litgraph is the entry point for the litgraph CLI: ingestion
// runs, entity normalization, natural-language graph queries, multi-hop
// reasoning, and temporal trend forecasting.
package main

import "github.com/opencite/litgraph/cli"

func main() {
	cli.Execute()
}
