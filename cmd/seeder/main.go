package main

import (
	"bufio"
	"context"
	"flag"
	"iter"
	"log/slog"
	"os"

	"github.com/poiesic/memora"
	"github.com/poiesic/memora/ingestion"
)

var memories = []string{
	"Met with Sarah from the design team about the new onboarding flow, she wants mockups by Friday.",
	"Paid the electricity bill today, 84 euros, noticeably higher than last month.",
	"Doctor said my blood pressure is back in the normal range, next checkup in six months.",
	"Mom's birthday is coming up, she mentioned wanting that ceramic teapot from the shop on Elm Street.",
	"Finished reading The Three-Body Problem, loved the sophon concept, should pick up the sequel.",
	"The quarterly review went well, manager hinted at a promotion track conversation in January.",
	"Car made a grinding noise when braking, booked an appointment at the garage for Tuesday.",
	"Tried the new ramen place downtown with Alex, the spicy miso was excellent, a bit pricey though.",
	"Transferred 500 to the savings account, emergency fund is now at three months of expenses.",
	"Landlord confirmed the lease renews in March with a 3 percent increase.",
	"Learned that the staging outage was caused by a misconfigured load balancer health check.",
	"Dentist appointment moved to the 14th at 10am because the hygienist is out sick.",
	"Kids' school play is on December 9th, need to leave work early that day.",
	"The investment account gained 4 percent this quarter, rebalanced toward index funds.",
	"Interviewed a strong backend candidate, great systems answers, recommended a hire.",
	"Bought winter tires, the garage will store the summer set for 60 a season.",
	"Grandpa told the story about the lighthouse again, should record it next visit.",
	"Team retro surfaced that deploy notifications are too noisy, volunteered to fix the webhook filter.",
	"New gym membership started today, goal is three sessions a week before work.",
	"The flight to Lisbon is booked for April 3rd, returning on the 10th, seats 14A and 14B.",
	"Accountant needs the freelance invoices before the end of February for the tax filing.",
	"Neighbor's cat keeps sleeping on our porch chair, the kids have started calling it Biscuit.",
	"Password manager migration done, all the old spreadsheet entries are deleted.",
	"The physiotherapist showed me a new stretch for the shoulder, twice daily for two weeks.",
	"Book club picked a novel about a lighthouse keeper for next month.",
	"Upgraded the home router firmware, the dropouts in the office seem gone.",
	"Anna suggested splitting the conference trip costs, hotel is 120 a night shared.",
	"The pediatrician said the rash is harmless, just keep using the unscented lotion.",
	"Signed up for the pottery class on Thursday evenings starting next month.",
	"Production migration completed in 40 minutes, no rollback needed, wrote up the runbook notes.",
	"Insurance renewal quote came in 15 percent higher, worth shopping around before May.",
	"Found the missing house deed copy in the blue folder in the attic.",
	"Lunch with Marco from the old job, he moved to a robotics startup and is hiring.",
	"The sourdough starter finally doubled overnight, Saturday bake is on.",
	"Vet said Luna needs a dental cleaning, quoted around 300, scheduled for the 22nd.",
	"The balcony tomatoes are done for the season, note to start seeds indoors in March.",
	"Workshop on vector databases was solid, the speaker recommended benchmarking recall before tuning.",
	"Utility company confirmed the smart meter installation for Monday morning.",
	"Promised Emma we would visit the science museum during the autumn break.",
	"The standing desk frame arrived damaged, replacement ships within five business days.",
}

var seedFileName = flag.String("src", "", "file of seed data")

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// linesFromFile returns an iterator over lines in a file.
func linesFromFile(filename string) (iter.Seq[string], error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	return func(yield func(string) bool) {
		defer f.Close()
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			if !yield(scanner.Text()) {
				return
			}
		}
	}, nil
}

// linesFromSlice returns an iterator over a slice of strings.
func linesFromSlice(lines []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, line := range lines {
			if !yield(line) {
				return
			}
		}
	}
}

// ingestBatched reads from a source iterator and ingests memories in batches.
func ingestBatched(ctx context.Context, pipeline *ingestion.Pipeline, source iter.Seq[string], batchSize int) error {
	batch := make([]string, 0, batchSize)

	for line := range source {
		batch = append(batch, line)
		if len(batch) == batchSize {
			if _, err := pipeline.IngestBatch(ctx, batch, nil); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	// Process any remaining lines
	if len(batch) > 0 {
		if _, err := pipeline.IngestBatch(ctx, batch, nil); err != nil {
			return err
		}
	}

	return nil
}

func main() {
	vault, err := memora.OpenVault("./memora_db")
	if err != nil {
		panic(err)
	}
	defer vault.Close()

	ingester, err := vault.NewIngestionPipeline()
	if err != nil {
		panic(err)
	}
	defer ingester.Release()

	ctx := context.Background()

	// Determine source of seed data
	var source iter.Seq[string]
	if seedFileName != nil && *seedFileName != "" {
		source, err = linesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = linesFromSlice(memories)
	}

	// Ingest in batches of 5
	if err := ingestBatched(ctx, ingester, source, 5); err != nil {
		panic(err)
	}
}
