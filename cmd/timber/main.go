// Timber classifies instance lines with a memory-based classifier, one
// private experiment per worker.
//
// Usage:
//
//	# Train and classify stdin
//	timber classify --train weather.data < queries.txt
//
//	# Classify a file with 8 workers into a rotated NDJSON file
//	timber classify --train weather.data --input queries.txt \
//	    --workers 8 --output file --output-path results.jsonl
//
//	# Show the feature weights of a trained experiment
//	timber show weights --train weather.data
//
// Configuration comes from an optional YAML file (--config), TIMBER_*
// environment variables and flags, in increasing order of precedence.
package main

func main() {
	Execute()
}
