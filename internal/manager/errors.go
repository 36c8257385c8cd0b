package manager

import "errors"

var (
	ErrJobNotFound = errors.New("job not found")
	// ErrJobFinished is returned when cancelling a job that already reached a
	// terminal status.
	ErrJobFinished = errors.New("job already finished")
	// ErrJobCancelled and ErrJobTimeout are the context causes the manager uses to
	// stop a job; they decide between CANCELLED and ERROR.
	ErrJobCancelled = errors.New("job cancelled")
	ErrJobTimeout   = errors.New("job timed out")
	ErrShutdown     = errors.New("manager shutting down")
	// ErrWordlistPath rejects dictionary names that would resolve outside the
	// wordlist directory.
	ErrWordlistPath = errors.New("wordlist must be a file name inside the wordlist directory")
)
