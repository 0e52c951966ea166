package common

// Claim is a statement submitted for fact-checking. Title and Summary are
// optional; a claim created from raw text only carries empty strings there.
type Claim struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// SourceInput is a source as supplied by a caller, before it is bound to a
// claim and given an identifier.
type SourceInput struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Site     string   `json:"site"`
	Body     string   `json:"body"`
	Topic    string   `json:"topic"`
	Entities []string `json:"entities"`
}

// Source is a stored piece of supporting evidence for a claim.
type Source struct {
	ID       string   `json:"id"`
	ClaimID  string   `json:"claim_id"`
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Site     string   `json:"site"`
	Body     string   `json:"body"`
	Topic    string   `json:"topic"`
	Entities []string `json:"entities"`
}

// Answer is a generated verdict text for a claim, together with the folder
// the claim's graph images were rendered into.
type Answer struct {
	ID           string `json:"id"`
	ClaimID      string `json:"claim_id"`
	Answer       string `json:"answer"`
	GraphsFolder string `json:"graphs_folder"`
}

// Article is the graph-side view of a source. The title is the article's
// identity in the graph store.
type Article struct {
	Title    string   `json:"title"`
	URL      string   `json:"url"`
	Body     string   `json:"body"`
	Site     string   `json:"site"`
	Entities []string `json:"entities"`
	Topics   []string `json:"topics"`
}

// Relation names one of the three article relationships and the label of the
// node it points to.
type Relation struct {
	Type        string
	TargetLabel string
	FileName    string
}

var (
	RelationPublishedOn = Relation{Type: "PUBLISHED_ON", TargetLabel: "Site", FileName: "graph_sites.png"}
	RelationMentions    = Relation{Type: "MENTIONS", TargetLabel: "Entity", FileName: "graph_entities.png"}
	RelationHasTopic    = Relation{Type: "HAS_TOPIC", TargetLabel: "Topic", FileName: "graph_topics.png"}
)

// Relations lists every relation that gets its own rendered view.
var Relations = []Relation{RelationPublishedOn, RelationMentions, RelationHasTopic}

// Pair is an (article title, target name) edge as read back from the graph.
type Pair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// ArticleFromSource converts a stored source into its graph article. The
// single topic becomes a one-element topic list.
func ArticleFromSource(s Source) Article {
	topics := []string{}
	if s.Topic != "" {
		topics = append(topics, s.Topic)
	}
	entities := s.Entities
	if entities == nil {
		entities = []string{}
	}
	return Article{
		Title:    s.Title,
		URL:      s.URL,
		Body:     s.Body,
		Site:     s.Site,
		Entities: entities,
		Topics:   topics,
	}
}

// ArticlesFromSources converts every source with ArticleFromSource.
func ArticlesFromSources(sources []Source) []Article {
	articles := make([]Article, 0, len(sources))
	for _, s := range sources {
		articles = append(articles, ArticleFromSource(s))
	}
	return articles
}

// DedupeStrings removes empty and repeated values, keeping first occurrences
// in order.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
