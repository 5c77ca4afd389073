package system

import (
	"context"
	"errors"
	"testing"

	utilexec "k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"
)

func fakeExec(actions ...testingexec.FakeAction) (*testingexec.FakeExec, *testingexec.FakeCmd) {
	fcmd := &testingexec.FakeCmd{RunScript: actions}
	fexec := &testingexec.FakeExec{
		CommandScript: []testingexec.FakeCommandAction{
			func(cmd string, args ...string) utilexec.Cmd { return testingexec.InitFakeCmd(fcmd, cmd, args...) },
		},
	}
	return fexec, fcmd
}

func TestExecRunner_Success(t *testing.T) {
	fexec, fcmd := fakeExec(func() ([]byte, []byte, error) {
		return []byte("bos:bos.rte:7.2.3.15: : :C: :\n"), nil, nil
	})
	r := &ExecRunner{Exec: fexec}

	res := r.Run(context.Background(), LslppCommand, "-Lcq")
	if !res.OK() {
		t.Fatalf("expected success, got %s", res)
	}
	if res.Stdout != "bos:bos.rte:7.2.3.15: : :C: :\n" {
		t.Fatalf("unexpected stdout %q", res.Stdout)
	}
	if len(fcmd.RunLog) != 1 || fcmd.RunLog[0][0] != LslppCommand || fcmd.RunLog[0][1] != "-Lcq" {
		t.Fatalf("unexpected run log %v", fcmd.RunLog)
	}
}

func TestExecRunner_ExitCode(t *testing.T) {
	fexec, _ := fakeExec(func() ([]byte, []byte, error) {
		return []byte("report"), []byte("vulnerable"), testingexec.FakeExitError{Status: 2}
	})
	r := &ExecRunner{Exec: fexec}

	res := r.Run(context.Background(), "/usr/bin/flrtvc.ksh")
	if res.OK() {
		t.Fatalf("expected failure for rc=2 without accepted codes")
	}
	if !res.OK(0, 2) {
		t.Fatalf("expected rc=2 to be accepted, got %s", res)
	}
	if res.ExitCode != 2 {
		t.Fatalf("expected exit code 2, got %d", res.ExitCode)
	}
	var cmdErr *CommandError
	if !errors.As(res.Err, &cmdErr) {
		t.Fatalf("expected CommandError, got %T", res.Err)
	}
	if cmdErr.Stderr != "vulnerable" {
		t.Fatalf("unexpected stderr %q", cmdErr.Stderr)
	}
}

func TestExecRunner_NotFound(t *testing.T) {
	fexec, _ := fakeExec(func() ([]byte, []byte, error) {
		return nil, nil, utilexec.ErrExecutableNotFound
	})
	r := &ExecRunner{Exec: fexec}

	res := r.Run(context.Background(), "/bin/wget")
	if res.ExitCode != -1 {
		t.Fatalf("expected exit code -1, got %d", res.ExitCode)
	}
	if !errors.Is(res.Err, utilexec.ErrExecutableNotFound) {
		t.Fatalf("expected ErrExecutableNotFound in chain, got %v", res.Err)
	}
	if res.OK(0, 2) {
		t.Fatalf("a command that never ran must not be accepted")
	}
}
