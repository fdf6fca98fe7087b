package errors

type ExitCode int

const (
	ExitSuccess      ExitCode = 0
	ExitGeneralError ExitCode = 1
	ExitConfigError  ExitCode = 2
	ExitPrereqError  ExitCode = 3
	ExitIOError      ExitCode = 4
	ExitCodecError   ExitCode = 5
	ExitToolError    ExitCode = 6
	ExitSignError    ExitCode = 7
	ExitPartialSuccess ExitCode = 10
)

func (e ExitCode) Int() int {
	return int(e)
}
