// Package cardiocare estimates cardiovascular risk from twelve clinical and
// lifestyle inputs using a previously trained classifier.
//
// Quick start:
//
//	c, err := cardiocare.New(cardiocare.WithModelDir("models/"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	res, _ := c.Assess(cardiocare.Input{AgeYears: 52, HeightCm: 170, ...})
//	fmt.Println(res.RiskLevel, res.Probability)
//
// A CardioCare instance is safe for concurrent use. Sessions model the
// interactive flow: one submission, a shown result, then an explicit reset.
package cardiocare
