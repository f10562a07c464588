//go:build !gocv

package main

import (
	"errors"

	"jordanella.com/desktop-pilot/internal/cv"
)

func opencvMatcher() (cv.Matcher, error) {
	return nil, errors.New("opencv matcher requires building with -tags gocv")
}
