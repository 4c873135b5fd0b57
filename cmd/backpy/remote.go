package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tgross03/backpy/internal/core"
	sshremote "github.com/tgross03/backpy/internal/remote"
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Manage remote storage servers",
}

var remoteCreateCmd = &cobra.Command{
	Use:   "create NAME HOST",
	Short: "Register a remote storage server",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r := a.NewRemote()
		r.Name = args[0]
		r.Host = args[1]

		protocol := string(core.ProtocolSFTP)
		if cmd.Flags().Changed("protocol") {
			protocol, _ = cmd.Flags().GetString("protocol")
		}
		if r.Protocol, err = core.ParseProtocol(protocol); err != nil {
			return err
		}

		if cmd.Flags().Changed("port") {
			r.Port, _ = cmd.Flags().GetInt("port")
		}
		r.User, _ = cmd.Flags().GetString("user")
		r.SSHKeyPath, _ = cmd.Flags().GetString("key")
		r.UseSystemKeys, _ = cmd.Flags().GetBool("system-keys")
		if cmd.Flags().Changed("root-dir") {
			r.RootDir, _ = cmd.Flags().GetString("root-dir")
		}
		if cmd.Flags().Changed("hash-command") {
			r.HashCommand, _ = cmd.Flags().GetString("hash-command")
		}

		if askPassword, _ := cmd.Flags().GetBool("password"); askPassword {
			if r.Password, err = promptPassword("Password: "); err != nil {
				return err
			}
		}

		r.UUID = a.Service.NewID()

		a.StartOperation("remote create", "", r.Name)
		err = a.Remotes.Save(r)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Created remote %q (%s)\n", r.Name, r.UUID)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote storage servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		remotes, err := a.Remotes.List()
		if err != nil {
			return err
		}
		if len(remotes) == 0 {
			fmt.Println("No remotes configured.")
			return nil
		}

		for _, r := range remotes {
			fmt.Printf("%s  %-20s  %s://%s@%s:%d\n",
				r.UUID, r.Name, r.Protocol, r.User, r.Host, r.Port)
		}
		return nil
	},
}

var remoteInfoCmd = &cobra.Command{
	Use:   "info REMOTE",
	Short: "Show details of a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service.ResolveRemote(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Remote %q\n\n", r.Name)
		fmt.Printf("UUID:         %s\n", r.UUID)
		fmt.Printf("Address:      %s://%s@%s:%d\n", r.Protocol, r.User, r.Host, r.Port)
		fmt.Printf("Root Dir:     %s\n", r.RootDir)
		fmt.Printf("Hash Command: %s\n", r.HashCommand)
		fmt.Printf("Password:     %t\n", r.Password != "")
		if r.SSHKeyPath != "" {
			fmt.Printf("SSH Key:      %s\n", r.SSHKeyPath)
		}
		fmt.Printf("System Keys:  %t\n", r.UseSystemKeys)
		fmt.Printf("Timeout:      %s\n", r.ConnectTimeout)
		return nil
	},
}

var remoteEditCmd = &cobra.Command{
	Use:   "edit REMOTE",
	Short: "Edit a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service.ResolveRemote(args[0])
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("name") {
			r.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("host") {
			r.Host, _ = cmd.Flags().GetString("host")
		}
		if cmd.Flags().Changed("port") {
			r.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("user") {
			r.User, _ = cmd.Flags().GetString("user")
		}
		if cmd.Flags().Changed("protocol") {
			name, _ := cmd.Flags().GetString("protocol")
			if r.Protocol, err = core.ParseProtocol(name); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("key") {
			r.SSHKeyPath, _ = cmd.Flags().GetString("key")
		}
		if cmd.Flags().Changed("system-keys") {
			r.UseSystemKeys, _ = cmd.Flags().GetBool("system-keys")
		}
		if cmd.Flags().Changed("root-dir") {
			r.RootDir, _ = cmd.Flags().GetString("root-dir")
		}
		if cmd.Flags().Changed("hash-command") {
			r.HashCommand, _ = cmd.Flags().GetString("hash-command")
		}
		if askPassword, _ := cmd.Flags().GetBool("password"); askPassword {
			if r.Password, err = promptPassword("Password: "); err != nil {
				return err
			}
		}

		a.StartOperation("remote edit", "", r.Name)
		err = a.Remotes.Save(r)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Updated remote %q\n", r.Name)
		return nil
	},
}

var remoteDeleteCmd = &cobra.Command{
	Use:   "delete REMOTE",
	Short: "Delete a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service.ResolveRemote(args[0])
		if err != nil {
			return err
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			spaces, err := a.Service.ListSpaces()
			if err != nil {
				return err
			}
			for _, space := range spaces {
				if space.RemoteID == r.UUID {
					return fmt.Errorf("remote %q is bound to backup space %q, use --force to delete anyway", r.Name, space.Name)
				}
			}
		}

		a.StartOperation("remote delete", "", r.Name)
		err = a.Remotes.Delete(r.UUID)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted remote %q\n", r.Name)
		return nil
	},
}

var remoteTestCmd = &cobra.Command{
	Use:   "test REMOTE",
	Short: "Test the connection to a remote",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Service.ResolveRemote(args[0])
		if err != nil {
			return err
		}

		start := time.Now()
		sess, err := sshremote.NewSSHDialer().Dial(r)
		if err != nil {
			return fmt.Errorf("connection to %q failed: %w", r.Name, err)
		}
		defer sess.Close()

		fmt.Printf("Connected to %q in %s\n", r.Name, time.Since(start).Truncate(time.Millisecond))
		return nil
	},
}

// promptPassword reads a password without echo when stdin is a terminal and
// falls back to a plain line read otherwise (pipes, tests).
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		defer fmt.Fprintln(os.Stderr)
		data, err := term.ReadPassword(fd)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(data), nil
	}

	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return line, nil
}

func init() {
	remoteCreateCmd.Flags().String("protocol", "sftp", "Transfer protocol (sftp, scp)")
	remoteCreateCmd.Flags().IntP("port", "p", 22, "SSH port")
	remoteCreateCmd.Flags().StringP("user", "u", "", "SSH user")
	remoteCreateCmd.Flags().String("key", "", "Path to an SSH private key file")
	remoteCreateCmd.Flags().Bool("system-keys", false, "Try the default keys in ~/.ssh")
	remoteCreateCmd.Flags().String("root-dir", "", "Remote directory holding the backup mirror")
	remoteCreateCmd.Flags().String("hash-command", "", "Remote command printing a SHA-256 digest")
	remoteCreateCmd.Flags().Bool("password", false, "Prompt for an SSH password")

	remoteEditCmd.Flags().String("name", "", "New name")
	remoteEditCmd.Flags().String("host", "", "New hostname")
	remoteEditCmd.Flags().IntP("port", "p", 22, "SSH port")
	remoteEditCmd.Flags().StringP("user", "u", "", "SSH user")
	remoteEditCmd.Flags().String("protocol", "", "Transfer protocol (sftp, scp)")
	remoteEditCmd.Flags().String("key", "", "Path to an SSH private key file")
	remoteEditCmd.Flags().Bool("system-keys", false, "Try the default keys in ~/.ssh")
	remoteEditCmd.Flags().String("root-dir", "", "Remote directory holding the backup mirror")
	remoteEditCmd.Flags().String("hash-command", "", "Remote command printing a SHA-256 digest")
	remoteEditCmd.Flags().Bool("password", false, "Prompt for a new SSH password")

	remoteDeleteCmd.Flags().BoolP("force", "f", false, "Delete even when backup spaces reference the remote")

	remoteCmd.AddCommand(remoteCreateCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteInfoCmd)
	remoteCmd.AddCommand(remoteEditCmd)
	remoteCmd.AddCommand(remoteDeleteCmd)
	remoteCmd.AddCommand(remoteTestCmd)

	rootCmd.AddCommand(remoteCmd)
}
