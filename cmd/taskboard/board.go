package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"taskboard/internal/client"
	"taskboard/internal/service"

	"github.com/spf13/cobra"
)

func bootstrapCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Seed the default columns for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			be, err := openBackend(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer be.close()

			svc := service.NewBoardService(be.store, nil, be.audit)
			cols, seeded, err := svc.Bootstrap(cmd.Context(), owner)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Println(green("board created for"), bold(owner))
			} else {
				fmt.Println(dim("board already exists for"), bold(owner))
			}
			for _, c := range cols {
				fmt.Printf("  %d  %s\n", c.Order, c.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func tokenCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API token for an owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			tok, err := service.GenerateJWT(owner)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "Owner id")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

var (
	flagURL   string
	flagToken string
)

func boardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Read a board through the API",
	}
	cmd.PersistentFlags().StringVar(&flagURL, "url", "http://localhost:8080", "Server base URL")
	cmd.PersistentFlags().StringVar(&flagToken, "token", os.Getenv("TASKBOARD_TOKEN"), "API token (default $TASKBOARD_TOKEN)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the board",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			printBoard(cache)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "move <task-id> <column-id>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := loadBoard(cmd.Context())
			if err != nil {
				return err
			}
			co := client.NewCoordinator(cache, client.NewHTTPAPI(flagURL, flagToken))
			if err := co.MoveTask(args[0], args[1]).Wait(cmd.Context()); err != nil {
				return errors.New(cache.Err() + ": " + err.Error())
			}
			printBoard(cache)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Print the board every time it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cache := client.NewCache(client.NewHTTPAPI(flagURL, flagToken))
			cache.Subscribe(func() {
				if !cache.Loading() && cache.Err() == "" {
					printBoard(cache)
				}
			})
			feed, err := client.FeedURL(flagURL, flagToken)
			if err != nil {
				return err
			}
			if err := client.Watch(ctx, feed, cache); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	})
	return cmd
}

func loadBoard(ctx context.Context) (*client.Cache, error) {
	if flagToken == "" {
		return nil, errors.New("no token, pass --token or set TASKBOARD_TOKEN")
	}
	cache := client.NewCache(client.NewHTTPAPI(flagURL, flagToken))
	if err := cache.Load(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", cache.Err(), err)
	}
	return cache, nil
}

func printBoard(cache *client.Cache) {
	byColumn := cache.TasksByColumn()
	for _, col := range cache.SortedColumns() {
		fmt.Printf("%s %s\n", cyan(col.Name), dim(fmt.Sprintf("(%d)", len(byColumn[col.ID]))))
		for _, t := range byColumn[col.ID] {
			line := fmt.Sprintf("  %-7s %s  %s", t.Code, t.Title, priorityColor(string(t.Priority)))
			if t.DueDate != "" {
				line += dim("  due " + t.DueDate)
			}
			fmt.Println(line)
		}
	}
	n := cache.Counts()
	fmt.Println(strings.Join([]string{
		bold(fmt.Sprint(n.Total)) + " tasks",
		fmt.Sprintf("backlog %d", n.Backlog),
		fmt.Sprintf("in progress %d", n.InProgress),
		fmt.Sprintf("validation %d", n.Validation),
		green(fmt.Sprintf("done %d", n.Done)),
	}, dim(" | ")))
}
