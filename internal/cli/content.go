package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mcoot/communityportal/internal/model"
)

func newContentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Read the portal's public content",
	}

	cmd.AddCommand(newContentListCmd("news", "List news articles", func() any { return &[]model.NewsItem{} }))
	cmd.AddCommand(newContentListCmd("events", "List events", func() any { return &[]model.Event{} }))
	cmd.AddCommand(newContentListCmd("downloads", "List downloadable documents", func() any { return &[]model.Download{} }))
	cmd.AddCommand(newContentListCmd("committee", "List committee members", func() any { return &[]model.CommitteeMember{} }))
	cmd.AddCommand(newContentListCmd("menus", "List the public navigation menus", func() any { return &[]model.Menu{} }))
	cmd.AddCommand(newContentListCmd("information", "Show the about-us information", func() any { return &[]model.InformationBlock{} }))
	cmd.AddCommand(newContentListCmd("carousel", "List the home page carousel slides", func() any { return &[]model.CarouselSlide{} }))

	return cmd
}

// newContentListCmd lists a section, or shows one item when an id is given
// and the section has detail pages
func newContentListCmd(section, short string, newResult func() any) *cobra.Command {
	use := section
	args := cobra.NoArgs
	if section == "news" || section == "events" {
		use = section + " [id]"
		args = cobra.MaximumNArgs(1)
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output)

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid id %q", args[0])
				}
				item, err := getContentItem(section, id)
				if err != nil {
					return err
				}
				out.Print(item)
				return nil
			}

			result := newResult()
			if err := client.Get("/api/v1/content/"+section, result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}
}

func getContentItem(section string, id int) (any, error) {
	path := fmt.Sprintf("/api/v1/content/%s/%d", section, id)
	if section == "news" {
		var item model.NewsItem
		if err := client.Get(path, &item); err != nil {
			return nil, err
		}
		return item, nil
	}
	var item model.Event
	if err := client.Get(path, &item); err != nil {
		return nil, err
	}
	return item, nil
}
