package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/wikilake/hopcheck/pkg/corpus"
	"github.com/wikilake/hopcheck/pkg/store"
)

type IndexCmd struct{}

func NewIndexCmd() *IndexCmd {
	return &IndexCmd{}
}

func (c *IndexCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build the corpus index and search it",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
			if err != nil {
				return fmt.Errorf("failed to get verbose flag: %w", err)
			}
			bucket, err := cmd.Flags().GetString("bucket")
			if err != nil {
				return fmt.Errorf("failed to get bucket flag: %w", err)
			}
			prefix, err := cmd.Flags().GetString("prefix")
			if err != nil {
				return fmt.Errorf("failed to get prefix flag: %w", err)
			}
			region, err := cmd.Flags().GetString("region")
			if err != nil {
				return fmt.Errorf("failed to get region flag: %w", err)
			}
			localDir, err := cmd.Flags().GetString("local-dir")
			if err != nil {
				return fmt.Errorf("failed to get local-dir flag: %w", err)
			}
			keyword, err := cmd.Flags().GetString("keyword")
			if err != nil {
				return fmt.Errorf("failed to get keyword flag: %w", err)
			}

			log := newLogger(verbose)
			ctx := context.Background()

			st, err := newStore(log, bucket, prefix, region, localDir)
			if err != nil {
				return err
			}

			listing, err := st.List(ctx)
			if err != nil {
				return err
			}
			index := corpus.BuildIndex(log, listing)

			files := index.Files()
			if keyword != "" {
				files = index.Search(keyword)
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetAutoWrapText(false)
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Name", "Kind", "ID", "Page", "Index"})
			for _, f := range files {
				table.Append([]string{
					f.Name,
					string(f.Kind),
					fmt.Sprintf("%d", f.ID),
					f.Page,
					fmt.Sprintf("%d", f.Index),
				})
			}
			table.Render()

			log.Info("index search complete", "indexed", index.Len(), "matched", len(files))
			return nil
		},
	}

	cmd.Flags().String("bucket", "", "S3 bucket holding the corpus")
	cmd.Flags().String("prefix", "", "key prefix within the bucket")
	cmd.Flags().String("region", store.DefaultRegion, "bucket region")
	cmd.Flags().String("local-dir", "", "use a local corpus directory instead of S3")
	cmd.Flags().String("keyword", "", "case-insensitive page-name keyword to search for")

	return cmd
}

func newStore(log *slog.Logger, bucket, prefix, region, localDir string) (store.Store, error) {
	if localDir != "" {
		return store.NewDirStore(localDir), nil
	}
	if bucket == "" {
		return nil, fmt.Errorf("either --bucket or --local-dir is required")
	}
	return store.NewS3Store(store.S3StoreConfig{
		Logger: log,
		Bucket: bucket,
		Prefix: prefix,
		Region: region,
	})
}
