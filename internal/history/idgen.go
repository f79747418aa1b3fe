package history

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// adjectives is a list of descriptive words for memorable ID generation.
var adjectives = []string{
	"able", "agile", "amber", "azure", "bold",
	"brave", "brisk", "calm", "clear", "cosmic",
	"crisp", "eager", "early", "fair", "fast",
	"fresh", "gentle", "glad", "grand", "green",
	"handy", "jolly", "keen", "kind", "light",
	"lucid", "lunar", "merry", "mint", "neat",
	"nimble", "noble", "polar", "prime", "proud",
	"quick", "quiet", "rapid", "ready", "solid",
	"sonic", "spry", "steady", "sturdy", "swift",
}

// nouns is a list of concrete nouns for memorable ID generation.
var nouns = []string{
	"anchor", "arrow", "aspen", "beacon", "birch",
	"bridge", "brook", "cedar", "comet", "coral",
	"crane", "creek", "delta", "dune", "ember",
	"falcon", "fern", "finch", "fjord", "glade",
	"harbor", "heron", "horizon", "island", "lantern",
	"maple", "meadow", "otter", "pebble", "prism",
	"quartz", "raven", "reef", "ridge", "river",
	"summit", "thicket", "tide", "vale", "willow",
}

// GenerateID creates an identifier in adjective_noun_YYYYMMDD_HHMMSS format
// for the attempt started at now.
func GenerateID(now time.Time) (string, error) {
	adj, err := randomWord(adjectives)
	if err != nil {
		return "", fmt.Errorf("selecting random adjective: %w", err)
	}
	noun, err := randomWord(nouns)
	if err != nil {
		return "", fmt.Errorf("selecting random noun: %w", err)
	}
	return fmt.Sprintf("%s_%s_%s", adj, noun, now.Format("20060102_150405")), nil
}

// randomWord selects a random word from the given slice using crypto/rand.
func randomWord(words []string) (string, error) {
	if len(words) == 0 {
		return "", fmt.Errorf("word list is empty")
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("generating random number: %w", err)
	}
	return words[n.Int64()], nil
}
