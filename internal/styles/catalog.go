package styles

// Author is the display metadata behind a style identifier. The recommender
// only deals in identifiers; the catalog exists for the API and CLI surfaces.
type Author struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Genres []string `json:"genres"`
	Blurb  string   `json:"blurb"`
}

var catalog = map[string]Author{
	"joan-didion":       {ID: "joan-didion", Name: "Joan Didion", Genres: []string{"essays", "memoir"}, Blurb: "Cool, controlled prose with forensic observation."},
	"susan-sontag":      {ID: "susan-sontag", Name: "Susan Sontag", Genres: []string{"essays", "criticism"}, Blurb: "Rigorous, authoritative cultural analysis."},
	"malcolm-gladwell":  {ID: "malcolm-gladwell", Name: "Malcolm Gladwell", Genres: []string{"narrative nonfiction"}, Blurb: "Counterintuitive ideas carried by story."},
	"yuval-noah-harari": {ID: "yuval-noah-harari", Name: "Yuval Noah Harari", Genres: []string{"big-idea nonfiction"}, Blurb: "Sweeping synthesis in plain, confident prose."},
	"ursula-k-le-guin":  {ID: "ursula-k-le-guin", Name: "Ursula K. Le Guin", Genres: []string{"speculative fiction"}, Blurb: "Luminous world-building with moral depth."},
	"david-mitchell":    {ID: "david-mitchell", Name: "David Mitchell", Genres: []string{"literary fiction", "speculative fiction"}, Blurb: "Nested structures and ventriloquist voices."},
	"jorge-luis-borges": {ID: "jorge-luis-borges", Name: "Jorge Luis Borges", Genres: []string{"short fiction"}, Blurb: "Dense, playful labyrinths of idea."},
	"david-sedaris":     {ID: "david-sedaris", Name: "David Sedaris", Genres: []string{"comedic essays"}, Blurb: "Self-deprecating humor with a sting of truth."},
	"nora-ephron":       {ID: "nora-ephron", Name: "Nora Ephron", Genres: []string{"essays", "romantic comedy"}, Blurb: "Wry warmth and conversational charm."},
	"bill-bryson":       {ID: "bill-bryson", Name: "Bill Bryson", Genres: []string{"travel", "popular science"}, Blurb: "Affable curiosity and comic digression."},
	"ernest-hemingway":  {ID: "ernest-hemingway", Name: "Ernest Hemingway", Genres: []string{"literary fiction"}, Blurb: "Short declaratives; everything beneath the surface."},
	"raymond-carver":    {ID: "raymond-carver", Name: "Raymond Carver", Genres: []string{"short fiction"}, Blurb: "Spare domestic realism, heavy silences."},
	"george-orwell":     {ID: "george-orwell", Name: "George Orwell", Genres: []string{"essays", "political fiction"}, Blurb: "Clarity as a moral position."},
	"ann-patchett":      {ID: "ann-patchett", Name: "Ann Patchett", Genres: []string{"literary fiction"}, Blurb: "Generous, emotionally precise ensemble stories."},
	"celeste-ng":        {ID: "celeste-ng", Name: "Celeste Ng", Genres: []string{"literary fiction"}, Blurb: "Family fault lines rendered with empathy."},
	"kazuo-ishiguro":    {ID: "kazuo-ishiguro", Name: "Kazuo Ishiguro", Genres: []string{"literary fiction"}, Blurb: "Restrained narration concealing deep feeling."},
	"fredrik-backman":   {ID: "fredrik-backman", Name: "Fredrik Backman", Genres: []string{"uplit", "contemporary fiction"}, Blurb: "Big-hearted comedy about ordinary people."},
	"maeve-binchy":      {ID: "maeve-binchy", Name: "Maeve Binchy", Genres: []string{"contemporary fiction"}, Blurb: "Warm, gossipy community storytelling."},
	"tj-klune":          {ID: "tj-klune", Name: "TJ Klune", Genres: []string{"fantasy", "uplit"}, Blurb: "Found-family whimsy with gentle humor."},
	"stephen-king":      {ID: "stephen-king", Name: "Stephen King", Genres: []string{"horror", "thrillers"}, Blurb: "Propulsive plainspoken storytelling."},
	"anne-lamott":       {ID: "anne-lamott", Name: "Anne Lamott", Genres: []string{"memoir", "essays"}, Blurb: "Honest, funny, forgiving voice."},
	"william-zinsser":   {ID: "william-zinsser", Name: "William Zinsser", Genres: []string{"nonfiction"}, Blurb: "Clean, humane expository craft."},
}

// Lookup resolves a style identifier to its catalog entry.
func Lookup(id string) (Author, bool) {
	a, ok := catalog[id]
	return a, ok
}

// All returns every catalog entry. Order is unspecified; callers sort.
func All() []Author {
	out := make([]Author, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, a)
	}
	return out
}
