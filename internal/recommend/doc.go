// Package recommend turns a current rate, its competitive set and the
// property's own history into a single scored rate recommendation.
//
// The synthesizer never writes anywhere; it only returns values. The blend is
// deterministic and every weight lives in Weights:
//
//	anchor     = CurrentWeight*current + MarketWeight*marketAverage
//	adjustment = direction + demand + trend
//	suggested  = max(0, round2(anchor * (1 + adjustment)))
//
// direction follows the majority gap tag across competitors, demand follows
// historical occupancy and trend follows the change in occupancy between the
// older and the more recent half of the history window.
package recommend
