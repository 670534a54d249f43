package retrieve

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"sfperms/internal/config"
	"sfperms/internal/logging"
)

// CommandError reports an sf invocation that exited non-zero or was killed.
type CommandError struct {
	Command  string
	ExitCode int
	Reason   string
	Output   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command, e.ExitCode)
	if e.Reason != "" {
		msg = fmt.Sprintf("%s: %s", e.Command, e.Reason)
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}
	return msg
}

// SF drives the Salesforce CLI.
type SF struct {
	exec        Executor
	binary      string
	targetOrg   string
	waitMinutes int
	projectDir  string
}

// NewSF creates an sf driver from the retrieve and project settings.
func NewSF(exec Executor, cfg *config.Config) *SF {
	return &SF{
		exec:        exec,
		binary:      cfg.Retrieve.Binary,
		targetOrg:   cfg.Retrieve.TargetOrg,
		waitMinutes: cfg.Retrieve.WaitMinutes,
		projectDir:  cfg.Project.Root,
	}
}

// RetrieveArgs builds the argument list for a manifest retrieve.
func (s *SF) RetrieveArgs(manifestPath string) []string {
	args := []string{"project", "retrieve", "start", "--manifest", manifestPath}
	if s.waitMinutes > 0 {
		args = append(args, "--wait", strconv.Itoa(s.waitMinutes))
	}
	return s.withOrg(args)
}

// DescribeArgs builds the argument list for an sobject describe.
func (s *SF) DescribeArgs(object string) []string {
	return s.withOrg([]string{"sobject", "describe", "--sobject", object, "--json"})
}

func (s *SF) withOrg(args []string) []string {
	if s.targetOrg != "" {
		args = append(args, "--target-org", s.targetOrg)
	}
	return args
}

// Retrieve fetches the metadata listed in manifestPath into the project.
func (s *SF) Retrieve(ctx context.Context, manifestPath string) error {
	cmd := Command{
		Binary:           s.binary,
		Arguments:        s.RetrieveArgs(manifestPath),
		WorkingDirectory: s.projectDir,
	}
	logging.Retrieve("retrieving with manifest %s", manifestPath)

	if _, err := s.run(ctx, cmd); err != nil {
		return err
	}
	return nil
}

// Describe returns the JSON describe of one object.
func (s *SF) Describe(ctx context.Context, object string) ([]byte, error) {
	cmd := Command{
		Binary:           s.binary,
		Arguments:        s.DescribeArgs(object),
		WorkingDirectory: s.projectDir,
	}
	logging.Retrieve("describing %s", object)

	res, err := s.run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return []byte(res.Stdout), nil
}

func (s *SF) run(ctx context.Context, cmd Command) (*Result, error) {
	res, err := s.exec.Execute(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if res.Failed() {
		logging.RetrieveError("%s failed (exit=%d): %s", cmd.CommandString(), res.ExitCode, res.Output())
		return nil, &CommandError{
			Command:  cmd.CommandString(),
			ExitCode: res.ExitCode,
			Reason:   res.KillReason,
			Output:   res.Output(),
		}
	}
	return res, nil
}
