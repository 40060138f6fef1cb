package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"graphsink/internal/pattern"
	"graphsink/internal/props"
)

// NewParseCommand 构建 parse 命令，输出 pattern 的规范形式与解析结果。
func NewParseCommand(_ *RootOptions) *cobra.Command {
	var relationship bool
	cmd := &cobra.Command{
		Use:   "parse <pattern>",
		Short: "Parse a node or relationship pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if relationship {
				conf, err := pattern.ParseRelationship(args[0])
				if err != nil {
					return err
				}
				printRelationship(cmd.OutOrStdout(), conf)
				return nil
			}
			conf, err := pattern.ParseNode(args[0])
			if err != nil {
				return err
			}
			printNode(cmd.OutOrStdout(), "", conf)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&relationship, "relationship", "r", false, "parse as a relationship pattern")
	return cmd
}

func printNode(w io.Writer, indent string, conf pattern.NodeConfiguration) {
	fmt.Fprintf(w, "%spattern:    %s\n", indent, conf)
	fmt.Fprintf(w, "%slabels:     %s\n", indent, strings.Join(conf.Labels, ", "))
	fmt.Fprintf(w, "%skeys:       %s\n", indent, strings.Join(conf.Keys, ", "))
	fmt.Fprintf(w, "%sselection:  %s\n", indent, selection(conf.Type, conf.Properties))
}

func printRelationship(w io.Writer, conf pattern.RelationshipConfiguration) {
	fmt.Fprintf(w, "pattern:    %s\n", conf)
	fmt.Fprintf(w, "type:       %s\n", conf.RelType)
	fmt.Fprintf(w, "keys:       %s\n", strings.Join(conf.Keys, ", "))
	fmt.Fprintf(w, "selection:  %s\n", selection(conf.Type, conf.Properties))
	fmt.Fprintln(w, "start:")
	printNode(w, "  ", conf.Start)
	fmt.Fprintln(w, "end:")
	printNode(w, "  ", conf.End)
}

func selection(mode props.Mode, properties []string) string {
	if len(properties) == 0 {
		return mode.String()
	}
	return mode.String() + " " + strings.Join(properties, ", ")
}
