package shell

import (
	"embed"
)

//go:embed helptext
var helptext embed.FS

func usage(mode string) (*Response, error) {
	dat, err := helptext.ReadFile("helptext/usage-" + mode + ".txt")
	if err != nil {
		return nil, err
	}
	return msg(string(dat)), nil
}

func usageTopic(topic string) (*Response, error) {
	dat, err := helptext.ReadFile("helptext/" + topic + ".txt")
	if err != nil {
		return msg("There is no help text for the topic " + topic), nil
	}
	return msg(string(dat)), nil
}
