package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/notewire/notewire/pkg/client"
)

var serverAddr string

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes on a running server",
}

func init() {
	noteCmd.PersistentFlags().StringVar(&serverAddr, "server", "http://localhost:3000", "server address")

	noteCmd.AddCommand(noteCreateCmd)
	noteCmd.AddCommand(noteReadCmd)
	noteCmd.AddCommand(noteUpdateCmd)
	noteCmd.AddCommand(noteDestroyCmd)
	noteCmd.AddCommand(noteListCmd)
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

var noteCreateCmd = &cobra.Command{
	Use:   "create <key> <title> <body>",
	Short: "Create a note",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		note, err := client.NewClient(serverAddr).CreateNote(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Created note %s\n", note.Key)
		return nil
	},
}

var noteReadCmd = &cobra.Command{
	Use:   "read <key>",
	Short: "Show a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		note, err := client.NewClient(serverAddr).ReadNote(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Key:   %s\nTitle: %s\n\n%s\n", note.Key, note.Title, note.Body)
		return nil
	},
}

var noteUpdateCmd = &cobra.Command{
	Use:   "update <key> <title> <body>",
	Short: "Replace a note's title and body",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		note, err := client.NewClient(serverAddr).UpdateNote(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("✓ Updated note %s\n", note.Key)
		return nil
	},
}

var noteDestroyCmd = &cobra.Command{
	Use:   "destroy <key>",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		if err := client.NewClient(serverAddr).DestroyNote(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("✓ Destroyed note %s\n", args[0])
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List note keys and titles",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cliContext()
		defer cancel()

		list, err := client.NewClient(serverAddr).ListNotes(ctx)
		if err != nil {
			return err
		}
		if list.Count == 0 {
			fmt.Println("No notes.")
			return nil
		}
		for _, title := range list.Notes {
			fmt.Printf("%-20s %s\n", title.Key, title.Title)
		}
		return nil
	},
}
