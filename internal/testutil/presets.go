package testutil

// FileTemplate is the content of the builtin "File Template".
const FileTemplate = "name: Person\nage: 3\noccupation: Astronaut"

// WithStandardFiles stores a valid person, an invalid person and an object.
func (b *Bridge) WithStandardFiles() *Bridge {
	return b.
		WithFile("person.yaml", FileTemplate+"\n").
		WithFile("broken.yaml", "name: Ada\nage: old\noccupation: Pilot\n").
		WithFile("object.yaml", "object_name: Kiwi\noccupation: Fruit\n")
}
