package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/aicp/controlplane/internal/modelregistry"
	"github.com/spf13/cobra"
)

// defaultRegistryPath returns the persisted model registry location: the
// AICP_REGISTRY_PATH environment variable when set, otherwise
// model_registry.json in the working directory.
func defaultRegistryPath() string {
	if path := os.Getenv("AICP_REGISTRY_PATH"); path != "" {
		return path
	}
	return "model_registry.json"
}

func openRegistry() *modelregistry.Registry {
	path := defaultRegistryPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		fatalf("creating registry directory: %v", err)
	}
	r, err := modelregistry.New(path)
	if err != nil {
		fatalf("opening model registry at %s: %v", path, err)
	}
	return r
}

// NewRegistryCmd builds the `aicpctl registry` command group, grounded on
// original_source/src/aicp/cli.py's registry_app (list/register/promote).
func NewRegistryCmd() *cobra.Command {
	registryCmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the model registry.",
	}
	registryCmd.AddCommand(newRegistryListCmd())
	registryCmd.AddCommand(newRegistryRegisterCmd())
	registryCmd.AddCommand(newRegistryPromoteCmd())
	return registryCmd
}

func newRegistryListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all models in the registry.",
		Run: func(cmd *cobra.Command, args []string) {
			r := openRegistry()
			models := r.ListModels()

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tPROVIDER\tMODEL NAME\tSTATUS")
			for name, versions := range models {
				for _, v := range versions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, v.Version, v.Provider, v.ModelName, v.Status)
				}
			}
			w.Flush()
		},
	}
}

func newRegistryRegisterCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "register <name> <version> <provider> <model-name>",
		Short: "Register a new model version.",
		Args:  cobra.ExactArgs(4),
		Run: func(cmd *cobra.Command, args []string) {
			r := openRegistry()
			v, err := r.Register(args[0], args[1], args[2], args[3], description)
			if err != nil {
				fatalf("%v", err)
			}
			fmt.Printf("Registered %s version %s\n", args[0], v.Version)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "optional description")
	return cmd
}

func newRegistryPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <name> <version>",
		Short: "Promote a model version to production.",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			r := openRegistry()
			v, err := r.Promote(args[0], args[1])
			if err != nil {
				fatalf("%v", err)
			}
			fmt.Printf("Promoted %s v%s to production\n", args[0], v.Version)
		},
	}
}

func init() {
	rootCmd.AddCommand(NewRegistryCmd())
}
