package main

import (
	"fmt"

	"github.com/spboyer/agentra/internal/cache"
	"github.com/spboyer/agentra/internal/config"
	"github.com/spf13/cobra"
)

type cacheFlags struct {
	dir        string
	configPath string
}

func newCacheCommand() *cobra.Command {
	var flags cacheFlags

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and clear the judge reply cache",
		Long: `Work with the directory "agentra evaluate --judge-cache" keeps judge
replies in. Without --judge-cache the directory comes from judge.cache_dir
in agentra.yaml.`,
	}

	cmd.PersistentFlags().StringVar(&flags.dir, "judge-cache", "", "Judge cache directory")
	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to agentra.yaml (default: search upward from the working directory)")

	cmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show where the judge cache lives and how many replies it holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(&flags)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Directory: %s\nReplies:   %d\n", c.Dir(), c.Len())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cached judge reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openCache(&flags)
			if err != nil {
				return err
			}
			removed, err := c.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached replies from %s\n", removed, c.Dir())
			return nil
		},
	})

	return cmd
}

// openCache resolves the cache directory from the flag, then from agentra.yaml.
func openCache(flags *cacheFlags) (*cache.Cache, error) {
	if flags.dir != "" {
		return cache.New(flags.dir), nil
	}

	path := flags.configPath
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return nil, err
		}
		path = found
	}
	if path != "" {
		f, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		if dir := config.NewEvalConfig(f.Options()...).Judge().CacheDir; dir != "" {
			return cache.New(dir), nil
		}
	}

	return nil, fmt.Errorf("no judge cache directory: pass --judge-cache or set judge.cache_dir in %s", config.DefaultFileName)
}
