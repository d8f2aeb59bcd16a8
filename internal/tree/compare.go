package tree

import "github.com/boyarskiy/ctsdiff/internal/model"

// Compare computes the difference between a baseline tree and a current
// result tree. Each test is reduced to its collapsed Outcome in both trees.
// A module or test case missing on one side is reported once, without
// listing its contents.
func Compare(baseline, current *Tree) *model.Diff {
	d := &model.Diff{}

	for bm := range baseline.Modules() {
		cm, ok := current.Module(bm.Name)
		if !ok {
			d.MissingModules = append(d.MissingModules, bm.Name)
			d.Regressions = append(d.Regressions, passingTests(bm, nil)...)
			continue
		}

		for btc := range bm.TestCases() {
			ctc, ok := cm.TestCase(btc.Name)
			if !ok {
				d.MissingTestCases = append(d.MissingTestCases, model.JoinID(bm.Name, btc.Name))
				d.Regressions = append(d.Regressions, passingTests(bm, btc)...)
				continue
			}

			for bt := range btc.Tests() {
				id := model.JoinID(bm.Name, btc.Name, bt.Name)
				from := bt.Outcome()

				ct, ok := ctc.Test(bt.Name)
				if !ok {
					d.MissingTests = append(d.MissingTests, id)
					if from == model.OutcomePass {
						d.Regressions = append(d.Regressions, id)
					}
					continue
				}

				to := ct.Outcome()
				if from != to {
					d.Changes = append(d.Changes, model.Change{ID: id, From: from, To: to})
					if from == model.OutcomePass {
						d.Regressions = append(d.Regressions, id)
					}
				}
			}
		}
	}

	for cm := range current.Modules() {
		bm, ok := baseline.Module(cm.Name)
		if !ok {
			d.NewModules = append(d.NewModules, cm.Name)
			continue
		}
		for ctc := range cm.TestCases() {
			btc, ok := bm.TestCase(ctc.Name)
			if !ok {
				d.NewTestCases = append(d.NewTestCases, model.JoinID(cm.Name, ctc.Name))
				continue
			}
			for ct := range ctc.Tests() {
				if _, ok := btc.Test(ct.Name); !ok {
					d.NewTests = append(d.NewTests, model.JoinID(cm.Name, ctc.Name, ct.Name))
				}
			}
		}
	}

	return d
}

// passingTests lists the ids of PASS tests under m, restricted to tc when it
// is not nil.
func passingTests(m *Module, tc *TestCase) []string {
	var ids []string
	for c := range m.TestCases() {
		if tc != nil && c != tc {
			continue
		}
		for test := range c.Tests() {
			if test.Outcome() == model.OutcomePass {
				ids = append(ids, model.JoinID(m.Name, c.Name, test.Name))
			}
		}
	}
	return ids
}
