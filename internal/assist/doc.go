// Package assist holds the two text-generation helpers of the client:
// selector suggestion from pasted HTML and a one-sentence change summary.
// Both are advisory and never write to the store. Correlator discards
// answers that arrive after the user has moved on.
package assist
