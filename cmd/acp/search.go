// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"acp-cli/internal/config"
	"acp-cli/internal/search"

	"github.com/spf13/cobra"
)

var (
	searchTag   string
	searchUser  string
	searchOrg   string
	searchSort  string
	searchLimit int

	searchCmd = &cobra.Command{
		Use:   "search <query>",
		Short: "Search GitHub for content packages",
		Long: `Search queries the GitHub repository search API, scoped to repositories
that advertise themselves as content packages.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSearch,
	}
)

func init() {
	searchCmd.Flags().StringVar(&searchTag, "tag", "", "restrict to repositories with this topic")
	searchCmd.Flags().StringVar(&searchUser, "user", "", "restrict to a user's repositories")
	searchCmd.Flags().StringVar(&searchOrg, "org", "", "restrict to an organization's repositories")
	searchCmd.Flags().StringVar(&searchSort, "sort", "", "sort order: stars or updated (default best match)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "maximum number of results")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	limit := searchLimit
	if limit <= 0 {
		limit = cfg.Search.Limit
	}

	client := search.NewClient(
		search.WithBaseURL(cfg.Search.BaseURL),
		search.WithToken(os.Getenv("GITHUB_TOKEN")),
		search.WithUserAgent("acp/"+Version),
	)

	repos, err := client.Search(cmd.Context(), search.Query{
		Text:  strings.Join(args, " "),
		Tag:   searchTag,
		User:  searchUser,
		Org:   searchOrg,
		Sort:  searchSort,
		Limit: limit,
	})
	if err != nil {
		return err
	}

	if len(repos) == 0 {
		fmt.Println(SubtitleStyle.Render("No packages found."))
		return nil
	}

	for _, r := range repos {
		fmt.Printf("%s %s\n", PkgStyle.Render(r.FullName), SubtitleStyle.Render(fmt.Sprintf("★ %d", r.Stars)))
		if r.Description != "" {
			fmt.Println("  " + r.Description)
		}
		fmt.Println(SubtitleStyle.Render("  " + r.HTMLURL))
	}
	return nil
}
