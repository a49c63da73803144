package usecase

import (
	"fmt"
	"strings"
)

// FunnelRepository counts distinct users per reached stage.
type FunnelRepository interface {
	Hit(stage StepID, userID int64) error
	Counts() (map[StepID]int, error)
}

type FunnelUsecase struct {
	repo   FunnelRepository
	order  []StepID
	labels map[StepID]string
}

func NewFunnelUsecase(repo FunnelRepository, steps *Steps) *FunnelUsecase {
	u := &FunnelUsecase{repo: repo, labels: map[StepID]string{StageSubmitted: "Submitted"}}
	for _, st := range steps.All() {
		u.order = append(u.order, st.ID)
		u.labels[st.ID] = st.Label
	}
	u.order = append(u.order, StageSubmitted)
	return u
}

// Reach records that userID got to stage. Unknown stages are ignored.
func (u *FunnelUsecase) Reach(userID int64, stage StepID) error {
	if _, ok := u.labels[stage]; !ok {
		return nil
	}
	return u.repo.Hit(stage, userID)
}

// Chart renders the funnel as text with a percentage of the first stage and of the previous one.
func (u *FunnelUsecase) Chart() string {
	counts, err := u.repo.Counts()
	if err != nil || len(counts) == 0 {
		return "No funnel data yet"
	}
	base := counts[u.order[0]]
	if base == 0 {
		for _, s := range u.order {
			if counts[s] > base {
				base = counts[s]
			}
		}
	}
	var prev int
	var b strings.Builder
	b.WriteString("Application funnel:\n")
	for i, s := range u.order {
		c := counts[s]
		relPrev := 0
		if i == 0 {
			relPrev = 100
		} else if prev > 0 {
			relPrev = percent(c, prev)
		}
		fmt.Fprintf(&b, "- %s: %d | %3d%% of start | %3d%% of prev %s\n", u.labels[s], c, percent(c, base), relPrev, bar20(c, base))
		prev = c
	}
	return b.String()
}

// GraphData returns labels and counts in stage order for plotting.
func (u *FunnelUsecase) GraphData() ([]string, []int, error) {
	counts, err := u.repo.Counts()
	if err != nil {
		return nil, nil, err
	}
	labels := make([]string, 0, len(u.order))
	values := make([]int, 0, len(u.order))
	for _, s := range u.order {
		labels = append(labels, u.labels[s])
		values = append(values, counts[s])
	}
	return labels, values, nil
}

func percent(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (100 * a) / b
}

func bar20(val, max int) string {
	if max <= 0 {
		return ""
	}
	filled := (20 * val) / max
	if filled < 0 {
		filled = 0
	}
	if filled > 20 {
		filled = 20
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", 20-filled) + "]"
}
