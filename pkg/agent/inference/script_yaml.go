package inference

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// scriptFile is the YAML shape of an offline gateway script.
type scriptFile struct {
	Steps []scriptStep `yaml:"steps"`
}

type scriptStep struct {
	Answer string       `yaml:"answer,omitempty"`
	Calls  []scriptCall `yaml:"calls,omitempty"`
	Fail   string       `yaml:"fail,omitempty"`
}

type scriptCall struct {
	Tool string         `yaml:"tool"`
	Args map[string]any `yaml:"args,omitempty"`
}

// LoadScript parses a YAML gateway script into a ScriptedGateway, for
// offline runs and demos. Each step is exactly one of answer, calls, or
// fail:
//
//	steps:
//	  - calls:
//	      - tool: get_pipeline_summary
//	  - answer: "Your pipeline holds 3 deals."
func LoadScript(raw []byte) (*ScriptedGateway, error) {
	var file scriptFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.Wrap(err, "parse gateway script")
	}
	if len(file.Steps) == 0 {
		return nil, errors.New("gateway script has no steps")
	}

	gw := NewScriptedGateway()
	for i, step := range file.Steps {
		switch {
		case step.Fail != "":
			gw.ThenError(errors.Wrap(ErrInferenceUnavailable, step.Fail))
		case len(step.Calls) > 0:
			calls := make([]ProposedCall, 0, len(step.Calls))
			for _, c := range step.Calls {
				if c.Tool == "" {
					return nil, errors.Errorf("script step %d: call without a tool name", i)
				}
				args := []byte("{}")
				if len(c.Args) > 0 {
					encoded, err := json.Marshal(c.Args)
					if err != nil {
						return nil, errors.Wrapf(err, "script step %d: encode args", i)
					}
					args = encoded
				}
				calls = append(calls, ProposedCall{Name: c.Tool, Arguments: json.RawMessage(args)})
			}
			gw.Then(RequestCalls(calls...))
		case step.Answer != "":
			gw.Then(FinalAnswer(step.Answer))
		default:
			return nil, errors.Errorf("script step %d: needs answer, calls, or fail", i)
		}
	}
	return gw, nil
}
