package inline

import (
	"encoding/json"
	"io"
	"time"

	"github.com/quadview-cli/quadview/group"
	"github.com/quadview-cli/quadview/history"
)

type Group struct {
	*group.Group
	// Time is the recording time parsed from the key, when it follows the naming scheme.
	Time *time.Time `json:"time,omitempty"`
	// Resume is the saved progress of the group.
	Resume *history.Entry `json:"resume,omitempty"`
}

type Output struct {
	Library string   `json:"library"`
	Query   string   `json:"query"`
	Result  []*Group `json:"result"`
}

func asJson(groups []*group.Group, options *Options) ([]byte, error) {
	var resumes map[string]*history.Entry
	if options.Resume {
		resumes = savedEntries(options.Library)
	}

	result := make([]*Group, len(groups))
	for i, g := range groups {
		item := &Group{Group: g, Resume: resumes[g.Key]}
		if at, err := g.Time(); err == nil {
			item.Time = &at
		}
		result[i] = item
	}

	return json.Marshal(&Output{
		Library: options.Library,
		Query:   options.Query,
		Result:  result,
	})
}

func writeJson(out io.Writer, groups []*group.Group, options *Options) error {
	data, err := asJson(groups, options)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}
