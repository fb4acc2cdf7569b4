package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"agencyctl/internal/adapters/driven/restapi"
	"agencyctl/internal/core/domain"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newUploadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file>",
		Short: "Push an image to the shared upload endpoint and print its URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("opening %s: %w", path, err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}

			bar := progressbar.DefaultBytes(info.Size(), "reading "+filepath.Base(path))
			var buf bytes.Buffer
			if _, err := io.Copy(io.MultiWriter(&buf, bar), f); err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			// the endpoint is shared across resources; any gateway will do
			gw := restapi.NewGateway(a.client, domain.Descriptor{Name: "assets"})
			url, err := gw.UploadAsset(cmd.Context(), filepath.Base(path), buf.Bytes())
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}

			fmt.Println(url)
			return nil
		},
	}
}
