package decoder

import "github.com/saintfish/chardet"

// ChardetDetector adapts saintfish/chardet's HTML-aware detector.
type ChardetDetector struct {
	det *chardet.Detector
}

// NewChardetDetector returns a detector that strips markup before scoring.
func NewChardetDetector() *ChardetDetector {
	return &ChardetDetector{det: chardet.NewHtmlDetector()}
}

// Detect returns the best guess for sample.
func (c *ChardetDetector) Detect(sample []byte) (string, int, error) {
	res, err := c.det.DetectBest(sample)
	if err != nil {
		return "", 0, err
	}
	return res.Charset, res.Confidence, nil
}
