// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package embedding

// dimensions maps Bedrock embedding model ids to the length of the vectors
// they produce.
var dimensions = map[string]int{
	"amazon.titan-embed-text-v1":   1536,
	"amazon.titan-embed-text-v2:0": 1024,
	"cohere.embed-english-v3":      1024,
	"cohere.embed-multilingual-v3": 1024,
}

// Dimension returns the vector length for modelID.
func Dimension(modelID string) (int, bool) {
	dim, ok := dimensions[modelID]
	return dim, ok
}
