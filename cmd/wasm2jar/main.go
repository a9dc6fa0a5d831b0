// Command wasm2jar compiles WebAssembly modules into JVM class files.
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wasm2jar/wasm2jar"
	"github.com/wasm2jar/wasm2jar/internal/conformance"
)

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "wasm2jar",
		Short:         "Compile WebAssembly modules to JVM class files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCompileCmd())
	root.AddCommand(newConformanceCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	var (
		outDir    string
		jarPath   string
		prefix    string
		mainClass string
	)
	cmd := &cobra.Command{
		Use:   "compile <module.wasm>",
		Short: "Compile one WASM module to class files (or a jar)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			cfg := wasm2jar.NewConfig()
			if prefix != "" {
				cfg = cfg.WithClassNamePrefix(prefix)
			}
			if mainClass != "" {
				cfg = cfg.WithMainClassName(mainClass)
			}
			compiled, err := wasm2jar.Compile(cfg, wasmBytes)
			if err != nil {
				return err
			}
			if jarPath != "" {
				f, err := os.Create(jarPath)
				if err != nil {
					return err
				}
				defer f.Close()
				if err := wasm2jar.WriteJar(compiled, f); err != nil {
					return err
				}
				log.Printf("wrote %d classes to %s", len(compiled.Classes), jarPath)
				return f.Close()
			}
			if err := wasm2jar.WriteClasses(compiled, outDir); err != nil {
				return err
			}
			log.Printf("wrote %d classes under %s (main: %s)",
				len(compiled.Classes), outDir, filepath.FromSlash(compiled.MainClass))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write .class files under")
	cmd.Flags().StringVar(&jarPath, "jar", "", "write a jar archive instead of loose class files")
	cmd.Flags().StringVar(&prefix, "prefix", "", "binary-name package prefix for generated classes")
	cmd.Flags().StringVar(&mainClass, "main-class", "", "simple name of the generated main class")
	return cmd
}

func newConformanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conformance <dir-or-json>...",
		Short: "Run wast2json spec test corpora against the translator",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner := conformance.NewRunner(wasm2jar.NewConfig())
			failed := 0
			for _, arg := range args {
				files, err := collectJSONFiles(arg)
				if err != nil {
					return err
				}
				for _, f := range files {
					report, err := runner.RunFile(f)
					if err != nil {
						return err
					}
					log.Print(report.String())
					for _, res := range report.Results {
						if res.Verdict == conformance.Failed {
							log.Printf("  line %d %s: %s", res.Line, res.Command, res.Detail)
						}
					}
					failed += report.Failed()
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d directives failed", failed)
			}
			return nil
		},
	}
	return cmd
}

func collectJSONFiles(arg string) ([]string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{arg}, nil
	}
	entries, err := os.ReadDir(arg)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			files = append(files, filepath.Join(arg, e.Name()))
		}
	}
	return files, nil
}
