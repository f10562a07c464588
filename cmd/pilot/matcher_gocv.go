//go:build gocv

package main

import "jordanella.com/desktop-pilot/internal/cv"

func opencvMatcher() (cv.Matcher, error) {
	return cv.OpenCVMatcher{}, nil
}
