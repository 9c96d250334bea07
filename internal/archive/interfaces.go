package archive

// Archiver defines the interface for the archive builder.
type Archiver interface {
	Build(outputDir, jobID string) (string, error)
}
