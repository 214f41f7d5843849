package service

import "strings"

type referenceTopic struct {
	key  string
	refs []string
}

// referenceTable is checked in order; the first key contained in the utterance wins.
var referenceTable = []referenceTopic{
	{"cbt", []string{
		"Cognitive Behavioral Therapy (CBT) - Beck, J.S. (2011). Cognitive Behavior Therapy: Basics and Beyond",
		"CBT effectiveness - Multiple meta-analyses show CBT is effective for depression, anxiety, and other conditions",
		"CBT principles - Based on the cognitive model: thoughts, feelings, and behaviors are interconnected",
	}},
	{"dbt", []string{
		"Dialectical Behavior Therapy (DBT) - Linehan, M.M. (1993). Skills Training Manual for Treating Borderline Personality Disorder",
		"DBT effectiveness - Research shows DBT is effective for BPD, self-harm, and emotional dysregulation",
		"DBT skills - Mindfulness, distress tolerance, emotion regulation, and interpersonal effectiveness",
	}},
	{"act", []string{
		"Acceptance and Commitment Therapy (ACT) - Hayes, S.C. (2004). Acceptance and Commitment Therapy",
		"ACT effectiveness - Research supports ACT for anxiety, depression, chronic pain, and other conditions",
		"ACT principles - Psychological flexibility through acceptance, mindfulness, and values-based action",
	}},
	{"mindfulness", []string{
		"Mindfulness-based interventions - Kabat-Zinn, J. (1990). Full Catastrophe Living",
		"Mindfulness research - Studies show benefits for stress reduction, anxiety, depression, and emotional regulation",
		"MBSR/MBCT - Evidence-based mindfulness programs with strong research support",
	}},
	{"anxiety", []string{
		"Anxiety treatment - CBT and exposure therapy have strong empirical support",
		"Anxiety research - Multiple studies show effectiveness of cognitive restructuring and behavioral interventions",
		"Anxiety mechanisms - Research on the role of avoidance, safety behaviors, and cognitive biases",
	}},
	{"depression", []string{
		"Depression treatment - CBT, IPT, and behavioral activation have strong research support",
		"Depression research - Studies show combination of therapy and medication can be most effective",
		"Depression mechanisms - Research on cognitive distortions, negative schemas, and behavioral patterns",
	}},
}

// LookupReferences returns the reference strings for the first topic key found in
// text, or nil.
func LookupReferences(text string) []string {
	lower := strings.ToLower(text)
	for _, topic := range referenceTable {
		if strings.Contains(lower, topic.key) {
			out := make([]string, len(topic.refs))
			copy(out, topic.refs)
			return out
		}
	}
	return nil
}
