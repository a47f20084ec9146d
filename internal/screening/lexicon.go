package screening

// profanity is the blocked-word dictionary. Matching is whole-word and
// case-insensitive. Kept deliberately small and obvious; substring or
// leetspeak evasion is a non-goal of the automated filter, that's what
// the moderation queue is for.
var profanity = map[string]struct{}{
	"ass":         {},
	"asshole":     {},
	"bastard":     {},
	"bitch":       {},
	"bollocks":    {},
	"bullshit":    {},
	"crap":        {},
	"cunt":        {},
	"damn":        {},
	"dick":        {},
	"dickhead":    {},
	"douche":      {},
	"douchebag":   {},
	"fuck":        {},
	"fucked":      {},
	"fucker":      {},
	"fucking":     {},
	"goddamn":     {},
	"jackass":     {},
	"motherfucker": {},
	"piss":        {},
	"pissed":      {},
	"prick":       {},
	"shit":        {},
	"shitty":      {},
	"slut":        {},
	"twat":        {},
	"wanker":      {},
	"whore":       {},
}

// valence assigns each sentiment-bearing word an integer weight in
// [-5, 5], AFINN style. Words absent from the map contribute zero.
var valence = map[string]int{
	// positive
	"amazing":    4,
	"awesome":    4,
	"beautiful":  3,
	"best":       3,
	"better":     2,
	"brilliant":  4,
	"calm":       2,
	"excited":    3,
	"fantastic":  4,
	"free":       1,
	"fun":        4,
	"glad":       3,
	"good":       3,
	"grateful":   3,
	"great":      3,
	"happy":      3,
	"hope":       2,
	"hopeful":    2,
	"joy":        3,
	"kind":       2,
	"laugh":      1,
	"love":       3,
	"loved":      3,
	"lucky":      3,
	"nice":       3,
	"perfect":    3,
	"proud":      2,
	"relieved":   2,
	"smile":      2,
	"succeeded":  3,
	"success":    2,
	"thankful":   2,
	"thanks":     2,
	"wonderful":  4,
	"won":        3,

	// negative
	"afraid":     -2,
	"alone":      -2,
	"angry":      -3,
	"anxious":    -2,
	"ashamed":    -2,
	"awful":      -3,
	"bad":        -3,
	"betrayed":   -3,
	"broke":      -1,
	"cheated":    -3,
	"cry":        -1,
	"depressed":  -3,
	"disappointed": -2,
	"failed":     -2,
	"failure":    -2,
	"fear":       -2,
	"guilty":     -3,
	"hate":       -3,
	"hated":      -3,
	"horrible":   -3,
	"hurt":       -2,
	"jealous":    -2,
	"lied":       -2,
	"lonely":     -2,
	"lost":       -3,
	"miserable":  -3,
	"mistake":    -2,
	"regret":     -2,
	"sad":        -2,
	"scared":     -2,
	"sorry":      -1,
	"terrible":   -3,
	"tired":      -2,
	"worried":    -3,
	"worst":      -3,
	"wrong":      -2,
}
