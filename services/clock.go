package services

import "time"

// nowFunc is the time source for promo validity and bonus windows.
// Tests replace it to pin the clock.
var nowFunc = time.Now
