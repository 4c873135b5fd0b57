package remote

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/tgross03/backpy/internal/core"
)

// scpSession implements core.RemoteSession over plain SSH exec channels:
// file transfers use the scp wire protocol, everything else shells out to
// standard POSIX tools. It needs no subsystem support on the server.
type scpSession struct {
	client      *ssh.Client
	hashCommand string
}

var _ core.RemoteSession = (*scpSession)(nil)

// Upload streams a single local file to remotePath via `scp -t`.
func (s *scpSession) Upload(localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return &core.TransferError{Op: "upload", Path: localPath, Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return &core.TransferError{Op: "upload", Path: localPath, Err: err}
	}

	session, err := s.client.NewSession()
	if err != nil {
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}

	if err := session.Start("scp -t " + shellQuote(path.Dir(remotePath))); err != nil {
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}

	responses := bufio.NewReader(stdout)
	if err := scpSend(stdin, responses, src, info.Size(), remoteBase(remotePath)); err != nil {
		stdin.Close()
		session.Wait()
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	stdin.Close()

	if err := session.Wait(); err != nil {
		return &core.TransferError{Op: "upload", Path: remotePath, Err: err}
	}
	return nil
}

// scpSend speaks the sender side of the scp protocol for one regular file.
func scpSend(stdin io.Writer, responses *bufio.Reader, src io.Reader, size int64, name string) error {
	if err := scpAck(responses); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(stdin, "C0644 %d %s\n", size, name); err != nil {
		return err
	}
	if err := scpAck(responses); err != nil {
		return err
	}
	if _, err := io.CopyN(stdin, src, size); err != nil {
		return err
	}
	if _, err := stdin.Write([]byte{0}); err != nil {
		return err
	}
	return scpAck(responses)
}

// scpAck reads one scp status byte, surfacing warning and error messages.
func scpAck(r *bufio.Reader) error {
	code, err := r.ReadByte()
	if err != nil {
		return err
	}
	if code == 0 {
		return nil
	}
	msg, _ := r.ReadString('\n')
	return fmt.Errorf("scp: %s", strings.TrimSpace(msg))
}

// Download streams remotePath to a local file via `scp -f`.
func (s *scpSession) Download(remotePath, localPath string) error {
	session, err := s.client.NewSession()
	if err != nil {
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}
	defer session.Close()

	stdin, err := session.StdinPipe()
	if err != nil {
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}

	if err := session.Start("scp -f " + shellQuote(remotePath)); err != nil {
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}

	if err := scpReceive(stdin, bufio.NewReader(stdout), localPath); err != nil {
		stdin.Close()
		session.Wait()
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}
	stdin.Close()

	if err := session.Wait(); err != nil {
		return &core.TransferError{Op: "download", Path: remotePath, Err: err}
	}
	return nil
}

// scpReceive speaks the receiver side of the scp protocol for one file.
func scpReceive(stdin io.Writer, stdout *bufio.Reader, localPath string) error {
	// Kick off the transfer.
	if _, err := stdin.Write([]byte{0}); err != nil {
		return err
	}

	header, err := stdout.ReadString('\n')
	if err != nil {
		return err
	}
	if len(header) == 0 || header[0] != 'C' {
		return fmt.Errorf("unexpected scp control message %q", strings.TrimSpace(header))
	}

	// Header format: C<mode> <size> <name>
	fields := strings.Fields(header[1:])
	if len(fields) < 3 {
		return fmt.Errorf("malformed scp header %q", strings.TrimSpace(header))
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return fmt.Errorf("malformed scp size in %q", strings.TrimSpace(header))
	}

	if _, err := stdin.Write([]byte{0}); err != nil {
		return err
	}

	dst, err := os.Create(localPath)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(dst, stdout, size); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	if err := scpAck(stdout); err != nil {
		return err
	}
	_, err = stdin.Write([]byte{0})
	return err
}

func (s *scpSession) Remove(remotePath string) error {
	if _, err := execRun(s.client, "rm "+shellQuote(remotePath)); err != nil {
		return &core.TransferError{Op: "remove", Path: remotePath, Err: err}
	}
	return nil
}

func (s *scpSession) RemoveAll(remotePath string) error {
	if _, err := execRun(s.client, "rm -rf "+shellQuote(remotePath)); err != nil {
		return &core.TransferError{Op: "remove", Path: remotePath, Err: err}
	}
	return nil
}

func (s *scpSession) Mkdir(remotePath string, parents bool) error {
	cmd := "mkdir "
	if parents {
		cmd = "mkdir -p "
	}
	if _, err := execRun(s.client, cmd+shellQuote(remotePath)); err != nil {
		return &core.TransferError{Op: "mkdir", Path: remotePath, Err: err}
	}
	return nil
}

func (s *scpSession) Exists(remotePath string) (bool, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return false, &core.TransferError{Op: "stat", Path: remotePath, Err: err}
	}
	defer session.Close()

	err = session.Run("test -e " + shellQuote(remotePath))
	if err == nil {
		return true, nil
	}
	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		return false, nil
	}
	return false, &core.TransferError{Op: "stat", Path: remotePath, Err: err}
}

func (s *scpSession) HashOf(remotePath string) (string, error) {
	return execHash(s.client, s.hashCommand, remotePath)
}

func (s *scpSession) SizeOf(remotePath string) (int64, error) {
	out, err := execRun(s.client, "wc -c < "+shellQuote(remotePath))
	if err != nil {
		return 0, &core.TransferError{Op: "stat", Path: remotePath, Err: err}
	}
	size, err := statSize(out)
	if err != nil {
		return 0, &core.TransferError{Op: "stat", Path: remotePath, Err: err}
	}
	return size, nil
}

func (s *scpSession) Close() error {
	return s.client.Close()
}
