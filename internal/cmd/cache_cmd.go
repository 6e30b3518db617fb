package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sindudeva/revguard/internal/cache"
	"github.com/sindudeva/revguard/internal/symbolindex"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or reset the on-disk review caches",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-file cache hit/miss counters",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached per-file findings and the reverse-graph cache",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func repoAndCacheDir() (repoRoot, dir string, err error) {
	workDir, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	return workDir, filepath.Join(workDir, ".code-reviewer-cache"), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	_, dir, err := repoAndCacheDir()
	if err != nil {
		return err
	}
	fc, err := cache.Open(dir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	stats := fc.GetStats()
	fmt.Printf("hits:            %d\n", stats.Hits)
	fmt.Printf("misses:          %d\n", stats.Misses)
	fmt.Printf("cached files:    %d\n", stats.TotalCached)
	fmt.Printf("hit rate:        %.1f%%\n", stats.HitRatePercent)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	repoRoot, dir, err := repoAndCacheDir()
	if err != nil {
		return err
	}
	fc, err := cache.Open(dir)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if err := fc.Clear(); err != nil {
		return fmt.Errorf("clear file cache: %w", err)
	}
	gc := cache.NewGraphCache(repoRoot, 0)
	if err := gc.Invalidate(); err != nil {
		return fmt.Errorf("clear graph cache: %w", err)
	}
	if store, err := symbolindex.OpenStore(dir); err == nil {
		defer store.Close()
		if err := store.Clear(); err != nil {
			return fmt.Errorf("clear symbol index store: %w", err)
		}
	}
	fmt.Println("cache cleared")
	return nil
}
