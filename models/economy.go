package models

import "time"

// TrainingResult is returned after a successful training session
type TrainingResult struct {
	GuardID        int64
	NewStrength    int64
	Cost           int64
	NewBalance     int64
	NextTrainingAt time.Time
}

// ContractResult is returned after a completed contract
type ContractResult struct {
	Income         int64
	Doubled        bool
	NewBalance     int64
	NextContractAt time.Time
}
