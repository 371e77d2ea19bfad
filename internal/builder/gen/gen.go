package gen

// Generator renders one build file.
type Generator interface {
	Generate() (string, error)
	BuildFile() string
}
