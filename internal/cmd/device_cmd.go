package cmd

import (
	"github.com/spf13/cobra"

	"github.com/stobo-app/pilot/internal/store"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "show the device id",
	Long:  `prints the id this device advertises, creating one on first use`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, devices, err := openDevices(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(db) }()

		id, err := devices.GetOrCreateDeviceID(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Println(id)
		return nil
	},
}

var deviceSetCmd = &cobra.Command{
	Use:   "set device-id",
	Short: "replace the stored device id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, devices, err := openDevices(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close(db) }()

		if err := devices.SetDeviceID(cmd.Context(), args[0]); err != nil {
			return err
		}
		cmd.Printf("Device ID set to %s\n", args[0])
		return nil
	},
}

func init() {
	deviceCmd.AddCommand(deviceSetCmd)
}
