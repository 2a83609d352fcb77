package feed

import "github.com/tidwall/gjson"

// Aliases is the ordered list of accepted source field names for each
// logical field. Order is policy: the first alias present in a record wins.
// New export formats are handled by appending aliases in configuration, not
// by patching parse code.
type Aliases struct {
	Identity []string `mapstructure:"identity"`
	Day      []string `mapstructure:"day"`
	Requests []string `mapstructure:"requests"`
	Spend    []string `mapstructure:"spend"`
	Model    []string `mapstructure:"model"`
}

// DefaultGitHubAliases returns the alias order for the GitHub Copilot feed.
func DefaultGitHubAliases() Aliases {
	return Aliases{
		Identity: []string{"user_login", "login", "email"},
		Day:      []string{"day", "date"},
		Requests: []string{"user_initiated_interaction_count", "interaction_count", "requests"},
	}
}

// DefaultWorkbenchAliases returns the alias order for the Workbench feed.
func DefaultWorkbenchAliases() Aliases {
	return Aliases{
		Identity: []string{"email", "user_email", "user"},
		Day:      []string{"date", "timestamp", "day"},
		Requests: []string{"api_requests", "request_count", "requests"},
		Spend:    []string{"spend", "cost"},
		Model:    []string{"model", "model_name"},
	}
}

// firstField returns the value of the first alias present in the record.
// Presence means the key exists, even when its value is null or empty; a
// null value under the winning alias does not fall through to later aliases.
func firstField(record gjson.Result, aliases []string) gjson.Result {
	for _, alias := range aliases {
		value := record.Get(alias)
		if value.Exists() {
			return value
		}
	}

	return gjson.Result{}
}
