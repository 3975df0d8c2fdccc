package inline

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/util"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// GroupsFilter narrows the scanned groups down.
type GroupsFilter func([]*group.Group) ([]*group.Group, error)

type Options struct {
	Out     io.Writer
	Library string
	// Query fuzzily matches group keys, best match first.
	Query  string
	Filter mo.Option[GroupsFilter]
	Json   bool
	// Resume includes the saved progress of every group.
	Resume bool
}

// ParseGroupsFilter parses a group selector.
// Format: "first", "last", "all", "[index]", "[from]-[to]", "@[substring]@"
func ParseGroupsFilter(description string) (GroupsFilter, error) {
	switch description {
	case "first":
		return func(groups []*group.Group) ([]*group.Group, error) {
			return lo.Subset(groups, 0, 1), nil
		}, nil
	case "last":
		return func(groups []*group.Group) ([]*group.Group, error) {
			return lo.Subset(groups, -1, 1), nil
		}, nil
	case "all":
		return func(groups []*group.Group) ([]*group.Group, error) {
			return groups, nil
		}, nil
	}

	if from, to, ok := strings.Cut(description, "-"); ok {
		start, err1 := strconv.ParseUint(from, 10, 16)
		end, err2 := strconv.ParseUint(to, 10, 16)
		if err1 == nil && err2 == nil {
			return func(groups []*group.Group) ([]*group.Group, error) {
				n := uint64(len(groups))
				start, end := util.Min(start, n), util.Min(end+1, n)
				if start > end {
					return []*group.Group{}, nil
				}
				return groups[start:end], nil
			}, nil
		}
	}

	if len(description) > 1 && strings.HasPrefix(description, "@") && strings.HasSuffix(description, "@") {
		sub := strings.ToLower(description[1 : len(description)-1])
		return func(groups []*group.Group) ([]*group.Group, error) {
			return lo.Filter(groups, func(g *group.Group, _ int) bool {
				return strings.Contains(strings.ToLower(g.Key), sub) ||
					lo.SomeBy(g.Positions(), func(p group.Position) bool {
						return strings.Contains(p.String(), sub)
					})
			}), nil
		}, nil
	}

	if idx, err := strconv.ParseUint(description, 10, 16); err == nil {
		return func(groups []*group.Group) ([]*group.Group, error) {
			if uint64(len(groups)) <= idx {
				return []*group.Group{}, nil
			}
			return []*group.Group{groups[idx]}, nil
		}, nil
	}

	return nil, fmt.Errorf("invalid group selector: %s", description)
}
