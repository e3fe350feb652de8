package news

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules is the fixed relevance policy for one team's feed.
//
// rules.yaml:
//
//	include_titles: [...]
//	ignore_titles: [...]
//	ignore_credits: [...]
//	ignore_keywords: [...]
type Rules struct {
	IncludeTitles  []string `yaml:"include_titles"`
	IgnoreTitles   []string `yaml:"ignore_titles"`
	IgnoreCredits  []string `yaml:"ignore_credits"`
	IgnoreKeywords []string `yaml:"ignore_keywords"`
}

// DefaultRules returns the built-in Hanshin Tigers policy.
func DefaultRules() Rules {
	return Rules{
		IncludeTitles: []string{"阪神"},
		IgnoreTitles: []string{
			"虎になれ",
			"阪神大学",
			"虎のソナタ",
			"内匠宏幸",
			"掛布",
			"寺尾で候",
			"阪神戦",
			"ネット",
			"ネット驚愕",
			"阪神リーグ",
			"鬼筆",
			"金村義明",
			"亀山つとむ",
			"岡田彰布",
			"岡田顧問",
			"広岡達朗",
			"廣岡達朗",
		},
		IgnoreCredits: []string{
			"日テレNEWS",
			"東スポWEB",
			"日刊ゲンダイDIGITAL",
			"文春オンライン",
			"夕刊フジ",
			"CoCoKARAnext",
			"note",
			"NEWSポストセブン",
			"日テレNEWS NNN",
			"西スポWEB OTTO！",
			"TBS NEWS DIG Powered by JNN",
			"AERA dot.",
			"デイリー新潮",
			"FRIDAY",
			"RONSPO",
			"中日スポーツ",
			"共同通信",
			"時事通信",
			"ベースボールチャンネル",
			"Yahoo!ニュース オリジナル THE PAGE",
			"テレ東スポーツ",
			"J-CASTニュース",
			"高校野球ドットコム",
			"Full-Count",
			"土井麻由実",
			"現代ビジネス",
			"THE ANSWER",
			"ベースボールキング",
			"AERA DIGITAL",
			"DAZN News",
		},
		IgnoreKeywords: []string{
			"川藤",
			"中畑",
			"掛布",
			"SNS",
			"ＳＮＳ",
			"旧ツイッター",
			"藤田平",
			"柏原誠",
			"デーブ大久保",
			"畑野理之",
			"ネット",
		},
	}
}

// LoadRules reads a rule set from a YAML file.
func LoadRules(path string) (Rules, error) {
	f, err := os.Open(path)
	if err != nil {
		return Rules{}, fmt.Errorf("open rules file: %w", err)
	}
	defer f.Close()

	var rules Rules
	if err := yaml.NewDecoder(f).Decode(&rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if len(rules.IncludeTitles) == 0 {
		return Rules{}, fmt.Errorf("rules file %s: include_titles must not be empty", path)
	}
	return rules, nil
}

func (r Rules) clone() Rules {
	return Rules{
		IncludeTitles:  append([]string(nil), r.IncludeTitles...),
		IgnoreTitles:   append([]string(nil), r.IgnoreTitles...),
		IgnoreCredits:  append([]string(nil), r.IgnoreCredits...),
		IgnoreKeywords: append([]string(nil), r.IgnoreKeywords...),
	}
}
