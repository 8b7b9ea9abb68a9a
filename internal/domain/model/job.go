package model

// Job is a unit of work flowing through the plan queue. Reply is buffered by
// the producer so workers never block on it.
type Job struct {
	ID      string
	Index   int
	Request Request
	Reply   chan<- JobResult
}

// JobResult pairs a finished job with its result.
type JobResult struct {
	ID     string
	Index  int
	Result Result
}
