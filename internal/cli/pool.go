package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/image-grid/internal/imaging"
)

func poolCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "pool [dir]",
		Short: "Summarize the candidate images of a directory",
		Long:  `Lists the images generate would draw from and reports their count and dimension range. The directory defaults to input_dir from --config.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			dir := cfg.InputDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no directory given and no input_dir configured")
			}

			info, err := imaging.Summarize(imaging.NewDirectorySource(dir, nil))
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("Summarized pool", "dir", info.InputDir)

			out := cmd.OutOrStdout()
			printKeyValue(out, "Directory", info.InputDir)
			printKeyValue(out, "Images", number(info.Count))
			printKeyValue(out, "Readable", number(info.Readable))
			if info.Unreadable > 0 {
				printWarning(out, "%d unreadable images will be skipped", info.Unreadable)
			}
			if info.Readable > 0 {
				printKeyValue(out, "Width", fmt.Sprintf("%d-%d", info.MinWidth, info.MaxWidth))
				printKeyValue(out, "Height", fmt.Sprintf("%d-%d", info.MinHeight, info.MaxHeight))
				printKeyValue(out, "Area", fmt.Sprintf("%.1f MP", float64(info.TotalArea)/1e6))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	return cmd
}
