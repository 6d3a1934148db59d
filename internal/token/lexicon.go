package token

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// LoadLexicons reads lexicon overrides from a YAML file, letting operators
// tune the stripped vocabulary without a rebuild. The file holds a list of
// lexicons; entries named "water_system" or "mhp" replace the built-ins, any
// other name is rejected.
func LoadLexicons(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "token: read lexicon %s", path)
	}

	var lexicons []Lexicon
	if err := yaml.Unmarshal(data, &lexicons); err != nil {
		return eris.Wrapf(err, "token: parse lexicon %s", path)
	}

	for _, lex := range lexicons {
		if len(lex.Patterns) == 0 {
			return eris.Errorf("token: lexicon %q has no patterns", lex.Name)
		}
		for _, p := range lex.Patterns {
			if _, err := regexp.Compile(p); err != nil {
				return eris.Wrapf(err, "token: lexicon %q pattern %q", lex.Name, p)
			}
		}
		switch lex.Name {
		case WSLexicon.Name:
			wsTokenizer = New(lex)
		case MHPLexicon.Name:
			mhpTokenizer = New(lex)
		default:
			return eris.Errorf("token: unknown lexicon %q", lex.Name)
		}
	}
	return nil
}
