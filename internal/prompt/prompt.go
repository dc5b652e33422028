// Package prompt builds the text handed to the language model, for training
// inputs and for live generation alike.
package prompt

// Instruction sits between the schema and the user's question.
const Instruction = "Translate the following English question to SQL: "

// Build concatenates schema, Instruction and question without any additional
// delimiters. The question is not validated; empty input is the caller's concern.
func Build(schema string, question string) string {
	return schema + Instruction + question
}
