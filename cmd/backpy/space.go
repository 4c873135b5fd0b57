package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgross03/backpy/internal/core"
)

var spaceCmd = &cobra.Command{
	Use:   "space",
	Short: "Manage backup spaces",
}

var spaceCreateCmd = &cobra.Command{
	Use:   "create NAME SOURCE",
	Short: "Create a backup space watching SOURCE",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		format, level, err := a.DefaultFormat()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("format") {
			name, _ := cmd.Flags().GetString("format")
			if format, err = core.ParseFormat(name); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("level") {
			level, _ = cmd.Flags().GetInt("level")
		}

		rule := core.EvictOldest
		if name, _ := cmd.Flags().GetString("eviction-rule"); name != "" {
			if rule, err = core.ParseEvictionRule(name); err != nil {
				return err
			}
		}

		include, _ := cmd.Flags().GetStringArray("include")
		exclude, _ := cmd.Flags().GetStringArray("exclude")
		maxBackups, _ := cmd.Flags().GetInt("max-backups")
		maxSize, _ := cmd.Flags().GetInt64("max-size")
		autoDeletion, _ := cmd.Flags().GetBool("auto-deletion")
		remoteRef, _ := cmd.Flags().GetString("remote")

		source, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}

		a.StartOperation("space create", "", args[0])
		space, err := a.Service.CreateSpace(core.SpaceParams{
			Name:         args[0],
			SourcePath:   source,
			Format:       format,
			Level:        level,
			Include:      include,
			Exclude:      exclude,
			MaxBackups:   maxBackups,
			MaxSize:      maxSize,
			AutoDeletion: autoDeletion,
			EvictionRule: rule,
			RemoteRef:    remoteRef,
		})
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Created backup space %q (%s)\n", space.Name, space.UUID)
		return nil
	},
}

var spaceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup spaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		spaces, err := a.Service.ListSpaces()
		if err != nil {
			return err
		}
		if len(spaces) == 0 {
			fmt.Println("No backup spaces configured.")
			return nil
		}

		for _, space := range spaces {
			remote := "-"
			if space.HasRemote() {
				remote = space.RemoteID
			}
			fmt.Printf("%s  %-20s  %-8s  remote=%s  %s\n",
				space.UUID, space.Name, space.Format, remote, space.SourcePath)
		}
		return nil
	},
}

var spaceInfoCmd = &cobra.Command{
	Use:   "info SPACE",
	Short: "Show details of a backup space",
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

		usage, err := a.Service.DiskUsage(space)
		if err != nil {
			return err
		}
		backups, err := a.Service.Backups(space, core.ListOptions{})
		if err != nil {
			return err
		}

		fmt.Printf("Backup Space %q\n\n", space.Name)
		fmt.Printf("UUID:          %s\n", space.UUID)
		fmt.Printf("Source:        %s\n", space.SourcePath)
		fmt.Printf("Format:        %s (level %d)\n", space.Format, space.Level)
		fmt.Printf("Backups:       %d (%s)\n", len(backups), formatSize(usage))
		fmt.Printf("Max Backups:   %s\n", formatLimit(int64(space.MaxBackups), "%d"))
		maxSize := "unlimited"
		if space.MaxSize > 0 {
			maxSize = formatSize(space.MaxSize)
		}
		fmt.Printf("Max Size:      %s\n", maxSize)
		fmt.Printf("Auto Deletion: %t (%s)\n", space.AutoDeletion, space.EvictionRule)
		if space.HasRemote() {
			fmt.Printf("Remote:        %s\n", space.RemoteID)
		}
		if len(space.Include) > 0 {
			fmt.Printf("Include:       %s\n", strings.Join(space.Include, ", "))
		}
		if len(space.Exclude) > 0 {
			fmt.Printf("Exclude:       %s\n", strings.Join(space.Exclude, ", "))
		}
		return nil
	},
}

var spaceEditCmd = &cobra.Command{
	Use:   "edit SPACE",
	Short: "Edit a backup space",
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

		if cmd.Flags().Changed("name") {
			space.Name, _ = cmd.Flags().GetString("name")
		}
		if cmd.Flags().Changed("format") {
			name, _ := cmd.Flags().GetString("format")
			if space.Format, err = core.ParseFormat(name); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("level") {
			space.Level, _ = cmd.Flags().GetInt("level")
		}
		if cmd.Flags().Changed("max-backups") {
			space.MaxBackups, _ = cmd.Flags().GetInt("max-backups")
		}
		if cmd.Flags().Changed("max-size") {
			space.MaxSize, _ = cmd.Flags().GetInt64("max-size")
		}
		if cmd.Flags().Changed("auto-deletion") {
			space.AutoDeletion, _ = cmd.Flags().GetBool("auto-deletion")
		}
		if cmd.Flags().Changed("eviction-rule") {
			name, _ := cmd.Flags().GetString("eviction-rule")
			if space.EvictionRule, err = core.ParseEvictionRule(name); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("remote") {
			ref, _ := cmd.Flags().GetString("remote")
			if ref == "" {
				space.RemoteID = ""
			} else {
				remote, err := a.Service.ResolveRemote(ref)
				if err != nil {
					return err
				}
				space.RemoteID = remote.UUID
			}
		}
		if cmd.Flags().Changed("include") {
			space.Include, _ = cmd.Flags().GetStringArray("include")
		}
		if cmd.Flags().Changed("exclude") {
			space.Exclude, _ = cmd.Flags().GetStringArray("exclude")
		}

		a.StartOperation("space edit", space.UUID, space.Name)
		err = a.Service.SaveSpace(space)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Updated backup space %q\n", space.Name)
		return nil
	},
}

var spaceDeleteCmd = &cobra.Command{
	Use:   "delete SPACE",
	Short: "Delete a backup space and all its backups",
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

		a.StartOperation("space delete", space.UUID, space.Name)
		err = a.Service.DeleteSpace(space)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted backup space %q\n", space.Name)
		return nil
	},
}

var spaceClearCmd = &cobra.Command{
	Use:   "clear SPACE",
	Short: "Delete all unlocked backups of a space",
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

		a.StartOperation("space clear", space.UUID, space.Name)
		deleted, err := a.Service.ClearSpace(space)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Deleted %d backup(s) from %q\n", deleted, space.Name)
		return nil
	},
}

var spacePruneCmd = &cobra.Command{
	Use:   "prune SPACE",
	Short: "Evict backups until the space meets its retention limits",
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

		a.StartOperation("space prune", space.UUID, space.Name)
		deleted, err := a.Service.PerformAutoDeletion(space)
		a.FinishOperation(err)
		if err != nil {
			return err
		}

		fmt.Printf("Evicted %d backup(s) from %q\n", deleted, space.Name)
		return nil
	},
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatLimit(n int64, format string) string {
	if n <= 0 {
		return "unlimited"
	}
	return fmt.Sprintf(format, n)
}

func init() {
	spaceCreateCmd.Flags().String("format", "", "Archive format (gztar, bztar, xztar, zsttar, zip)")
	spaceCreateCmd.Flags().Int("level", 0, "Compression level")
	spaceCreateCmd.Flags().StringArray("include", nil, "Default include pattern (repeatable)")
	spaceCreateCmd.Flags().StringArray("exclude", nil, "Default exclude pattern (repeatable)")
	spaceCreateCmd.Flags().Int("max-backups", 0, "Maximum number of backups, 0 for unlimited")
	spaceCreateCmd.Flags().Int64("max-size", 0, "Maximum total archive size in bytes, 0 for unlimited")
	spaceCreateCmd.Flags().Bool("auto-deletion", false, "Evict old backups when a limit is exceeded")
	spaceCreateCmd.Flags().String("eviction-rule", "", "Eviction rule (oldest, newest, largest, smallest)")
	spaceCreateCmd.Flags().String("remote", "", "Remote to mirror backups to (UUID or name)")

	spaceEditCmd.Flags().String("name", "", "New name")
	spaceEditCmd.Flags().String("format", "", "Archive format for new backups (gztar, bztar, xztar, zsttar, zip)")
	spaceEditCmd.Flags().Int("level", 0, "Compression level for new backups")
	spaceEditCmd.Flags().Int("max-backups", 0, "Maximum number of backups, 0 for unlimited")
	spaceEditCmd.Flags().Int64("max-size", 0, "Maximum total archive size in bytes, 0 for unlimited")
	spaceEditCmd.Flags().Bool("auto-deletion", false, "Evict old backups when a limit is exceeded")
	spaceEditCmd.Flags().String("eviction-rule", "", "Eviction rule (oldest, newest, largest, smallest)")
	spaceEditCmd.Flags().String("remote", "", "Remote to mirror backups to, empty to unbind")
	spaceEditCmd.Flags().StringArray("include", nil, "Default include pattern (repeatable)")
	spaceEditCmd.Flags().StringArray("exclude", nil, "Default exclude pattern (repeatable)")

	spaceCmd.AddCommand(spaceCreateCmd)
	spaceCmd.AddCommand(spaceListCmd)
	spaceCmd.AddCommand(spaceInfoCmd)
	spaceCmd.AddCommand(spaceEditCmd)
	spaceCmd.AddCommand(spaceDeleteCmd)
	spaceCmd.AddCommand(spaceClearCmd)
	spaceCmd.AddCommand(spacePruneCmd)

	rootCmd.AddCommand(spaceCmd)
}
