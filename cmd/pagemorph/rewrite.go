package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/fatih/color"
	gitignore "github.com/sabhiram/go-gitignore"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/pagemorph/pagemorph"
	"github.com/pagemorph/pagemorph/pkg/rule"
	"github.com/pagemorph/pagemorph/pkg/types"
)

var (
	rewriteRulesPath  string
	rewriteInclude    string
	rewriteExclude    string
	rewriteWrite      bool
	rewriteExtensions string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <target>",
	Short: "Apply replacement rules to a file or directory",
	Long: `Apply a rules file to the target. Single files are written to stdout unless
--write is given; directories require --write and are rewritten in place.
HTML files are parsed and only their text content is substituted; other
files are treated as one block of text. Directory walks honor .gitignore.`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteRulesPath, "rules", "", "Path to rules file (YAML or JSON)")
	rewriteCmd.Flags().StringVar(&rewriteInclude, "include", "", "Only apply rules whose original matches these regex patterns (comma-separated)")
	rewriteCmd.Flags().StringVar(&rewriteExclude, "exclude", "", "Skip rules whose original matches these regex patterns (comma-separated)")
	rewriteCmd.Flags().BoolVarP(&rewriteWrite, "write", "w", false, "Rewrite files in place")
	rewriteCmd.Flags().StringVar(&rewriteExtensions, "ext", "html,htm,txt,md", "File extensions to process in directory mode (comma-separated)")
	_ = rewriteCmd.MarkFlagRequired("rules")
}

func runRewrite(cmd *cobra.Command, args []string) error {
	target := args[0]

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("target does not exist: %s", target)
	}

	set, err := rule.LoadFile(rewriteRulesPath)
	if err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	set, err = rule.Filter(set, rule.FilterConfig{
		Include: rule.ParsePatterns(rewriteInclude),
		Exclude: rule.ParsePatterns(rewriteExclude),
	})
	if err != nil {
		return fmt.Errorf("filtering rules: %w", err)
	}

	engine := pagemorph.New(pagemorph.WithRules(set))

	if info.IsDir() {
		if !rewriteWrite {
			return fmt.Errorf("directory targets require --write")
		}
		return rewriteDir(cmd, engine, target)
	}
	return rewriteFile(cmd, engine, target)
}

// rewriteFile processes a single file, writing to stdout or in place.
func rewriteFile(cmd *cobra.Command, engine *pagemorph.Engine, path string) error {
	result, changed, err := rewriteContent(engine, path)
	if err != nil {
		return err
	}

	if !rewriteWrite {
		_, err := cmd.OutOrStdout().Write(result)
		return err
	}

	if changed {
		if err := writeBack(path, result); err != nil {
			return err
		}
	}
	printSummary(cmd, 1, boolToInt(changed))
	return nil
}

// rewriteDir walks a directory, honoring .gitignore, and rewrites eligible
// files in place. Each file is an independent document with its own engine
// context, so files are safe to process in parallel.
func rewriteDir(cmd *cobra.Command, engine *pagemorph.Engine, root string) error {
	var ignore *gitignore.GitIgnore
	if _, err := os.Stat(filepath.Join(root, ".gitignore")); err == nil {
		ignore, _ = gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	}

	exts := make(map[string]bool)
	for _, e := range strings.Split(rewriteExtensions, ",") {
		exts["."+strings.TrimPrefix(strings.TrimSpace(e), ".")] = true
	}

	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !exts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if ignore != nil {
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(rel) {
				return nil
			}
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}

	var (
		g          errgroup.Group
		mu         sync.Mutex
		filesDone  int
		filesEdits int
	)
	g.SetLimit(runtime.NumCPU())
	for _, path := range paths {
		path := path
		g.Go(func() error {
			result, changed, err := rewriteContent(engine, path)
			if err != nil {
				return err
			}
			if changed {
				if err := writeBack(path, result); err != nil {
					return err
				}
			}
			mu.Lock()
			filesDone++
			if changed {
				filesEdits++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	printSummary(cmd, filesDone, filesEdits)
	return nil
}

// rewriteContent applies the engine to one file. HTML files are parsed and
// scanned leaf by leaf; anything else is substituted as one block of text.
func rewriteContent(engine *pagemorph.Engine, path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		var out bytes.Buffer
		stats, err := engine.RewriteHTML(bytes.NewReader(data), &out)
		if err != nil {
			return nil, false, fmt.Errorf("rewriting %s: %w", path, err)
		}
		return out.Bytes(), stats.Replaced > 0, nil
	default:
		text := string(data)
		if types.TextLen(text) > types.OversizeLimit {
			// Same ceiling the scanner applies per leaf.
			return data, false, nil
		}
		result, changed := engine.Substitute(text)
		return []byte(result), changed, nil
	}
}

func writeBack(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stating %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func printSummary(cmd *cobra.Command, files, edited int) {
	out := cmd.ErrOrStderr()
	colored := color.New(color.FgGreen)
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		colored.DisableColor()
	}
	colored.Fprintf(out, "processed %d file(s), rewrote %d\n", files, edited)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
