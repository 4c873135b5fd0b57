package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgross03/backpy/internal/core"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backups",
}

var backupCreateCmd = &cobra.Command{
	Use:   "create SPACE",
	Short: "Create a backup of a space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}

		location := core.LocationLocal
		if name, _ := cmd.Flags().GetString("location"); name != "" {
			if location, err = core.ParseLocation(name); err != nil {
				return err
			}
		}
		comment, _ := cmd.Flags().GetString("comment")
		lock, _ := cmd.Flags().GetBool("lock")
		include, _ := cmd.Flags().GetStringArray("include")
		exclude, _ := cmd.Flags().GetStringArray("exclude")

		a.StartOperation("backup create", space.UUID, string(location))
		backup, err := a.Service.CreateBackup(space, core.BackupOptions{
			Comment:  comment,
			Location: location,
			Lock:     lock,
			Include:  include,
			Exclude:  exclude,
		})
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Created backup %s\n", backup.UUID)
		fmt.Printf("Digest: %s\n", backup.Digest)
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list SPACE",
	Short: "List backups of a space",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}

		sortBySize, _ := cmd.Flags().GetBool("size")
		unlockedOnly, _ := cmd.Flags().GetBool("unlocked")
		verify, _ := cmd.Flags().GetBool("verify")

		backups, err := a.Service.Backups(space, core.ListOptions{
			SortBySize:   sortBySize,
			UnlockedOnly: unlockedOnly,
			Verify:       verify,
		})
		if err != nil {
			return err
		}
		if len(backups) == 0 {
			fmt.Printf("No backups in %q.\n", space.Name)
			return nil
		}

		for _, backup := range backups {
			fmt.Printf("%s  %s  %-9s  %s%s  %s\n",
				backup.UUID,
				backup.CreatedAt.Format("2006-01-02 15:04:05"),
				formatSize(backup.LocalSize()),
				tierMarker(backup),
				lockMarker(backup),
				backup.Comment,
			)
		}
		return nil
	},
}

var backupInfoCmd = &cobra.Command{
	Use:   "info SPACE BACKUP",
	Short: "Show details of a backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}
		verify, _ := cmd.Flags().GetBool("verify")
		backup, err := a.Service.LoadBackup(space, args[1], verify)
		if err != nil {
			return err
		}

		fmt.Printf("Backup %s\n\n", backup.UUID)
		fmt.Printf("Space:    %s (%s)\n", space.Name, space.UUID)
		fmt.Printf("Created:  %s\n", backup.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Digest:   %s\n", backup.Digest)
		fmt.Printf("Locked:   %t\n", backup.Locked)
		fmt.Printf("Local:    %t", backup.HasLocal())
		if backup.HasLocal() {
			fmt.Printf(" (%s)", formatSize(backup.LocalSize()))
		}
		fmt.Println()
		fmt.Printf("Remote:   %s\n", formatRemoteID(backup.RemoteID))
		if backup.Comment != "" {
			fmt.Printf("Comment:  %s\n", backup.Comment)
		}
		if !backup.IsFull() {
			fmt.Printf("Include:  %s\n", strings.Join(backup.Include, ", "))
			fmt.Printf("Exclude:  %s\n", strings.Join(backup.Exclude, ", "))
		}
		return nil
	},
}

var backupDeleteCmd = &cobra.Command{
	Use:   "delete SPACE BACKUP",
	Short: "Delete a backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}
		backup, err := a.Service.LoadBackup(space, args[1], false)
		if err != nil {
			return err
		}

		a.StartOperation("backup delete", space.UUID, backup.UUID)
		err = a.Service.DeleteBackup(space, backup)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted backup %s\n", backup.UUID)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore SPACE BACKUP",
	Short: "Restore a backup into the space's source path",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}
		backup, err := a.Service.LoadBackup(space, args[1], false)
		if err != nil {
			return err
		}

		mode := core.RestoreOverwrite
		if name, _ := cmd.Flags().GetString("mode"); name != "" {
			if mode, err = core.ParseRestoreMode(name); err != nil {
				return err
			}
		}
		var source core.SourceTier
		if name, _ := cmd.Flags().GetString("source"); name != "" {
			if source, err = core.ParseSourceTier(name); err != nil {
				return err
			}
		}
		force, _ := cmd.Flags().GetBool("force")

		a.StartOperation("backup restore", space.UUID, backup.UUID)
		err = a.Service.Restore(space, backup, core.RestoreOptions{
			Mode:   mode,
			Source: source,
			Force:  force,
		})
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Restored backup %s into %s\n", backup.UUID, space.SourcePath)
		return nil
	},
}

var backupVerifyCmd = &cobra.Command{
	Use:   "verify SPACE BACKUP",
	Short: "Check a backup copy's digest against the recorded one",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		space, err := a.Service.ResolveSpace(args[0])
		if err != nil {
			return err
		}
		backup, err := a.Service.LoadBackup(space, args[1], false)
		if err != nil {
			return err
		}

		var tier core.SourceTier
		if name, _ := cmd.Flags().GetString("source"); name != "" {
			if tier, err = core.ParseSourceTier(name); err != nil {
				return err
			}
		}

		ok, err := a.Service.VerifyBackup(backup, tier)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("backup %s does not match its recorded digest", backup.UUID)
		}

		fmt.Printf("Backup %s matches its recorded digest\n", backup.UUID)
		return nil
	},
}

var backupLockCmd = &cobra.Command{
	Use:   "lock SPACE BACKUP",
	Short: "Protect a backup from deletion and eviction",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(args[0], args[1], true)
	},
}

var backupUnlockCmd = &cobra.Command{
	Use:   "unlock SPACE BACKUP",
	Short: "Remove the deletion protection of a backup",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setLock(args[0], args[1], false)
	},
}

func setLock(spaceRef, backupRef string, locked bool) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	space, err := a.Service.ResolveSpace(spaceRef)
	if err != nil {
		return err
	}
	backup, err := a.Service.LoadBackup(space, backupRef, false)
	if err != nil {
		return err
	}

	name := "backup unlock"
	state := "Unlocked"
	if locked {
		name = "backup lock"
		state = "Locked"
	}

	a.StartOperation(name, space.UUID, backup.UUID)
	err = a.Service.SetBackupLock(backup, locked)
	a.FinishOperation(err)
	if err != nil {
		return err
	}
	fmt.Printf("%s backup %s\n", state, backup.UUID)
	return nil
}

func tierMarker(b *core.Backup) string {
	switch {
	case b.HasLocal() && b.RemoteID != "":
		return "local+remote"
	case b.RemoteID != "":
		return "remote      "
	default:
		return "local       "
	}
}

func lockMarker(b *core.Backup) string {
	if b.Locked {
		return " [locked]"
	}
	return "         "
}

func formatRemoteID(id string) string {
	if id == "" {
		return "-"
	}
	return id
}

func init() {
	backupCreateCmd.Flags().StringP("location", "l", "", "Storage location (local, remote, all)")
	backupCreateCmd.Flags().StringP("comment", "c", "", "Comment stored with the backup")
	backupCreateCmd.Flags().Bool("lock", false, "Lock the backup right after creation")
	backupCreateCmd.Flags().StringArray("include", nil, "Include pattern overriding the space defaults (repeatable)")
	backupCreateCmd.Flags().StringArray("exclude", nil, "Exclude pattern overriding the space defaults (repeatable)")

	backupListCmd.Flags().Bool("size", false, "Sort by archive size instead of creation time")
	backupListCmd.Flags().Bool("unlocked", false, "Show only unlocked backups")
	backupListCmd.Flags().Bool("verify", false, "Verify archive digests of every copy while listing")

	backupInfoCmd.Flags().Bool("verify", false, "Verify the digest of every copy")

	backupRestoreCmd.Flags().StringP("mode", "m", "", "Restore mode (overwrite, clean, replace, merge)")
	backupRestoreCmd.Flags().StringP("source", "s", "", "Copy to restore from (local, remote)")
	backupRestoreCmd.Flags().BoolP("force", "f", false, "Restore even when the digest does not match")

	backupVerifyCmd.Flags().StringP("source", "s", "", "Copy to verify (local, remote)")

	backupCmd.AddCommand(backupCreateCmd)
	backupCmd.AddCommand(backupListCmd)
	backupCmd.AddCommand(backupInfoCmd)
	backupCmd.AddCommand(backupDeleteCmd)
	backupCmd.AddCommand(backupRestoreCmd)
	backupCmd.AddCommand(backupVerifyCmd)
	backupCmd.AddCommand(backupLockCmd)
	backupCmd.AddCommand(backupUnlockCmd)

	rootCmd.AddCommand(backupCmd)
}
