// Package evotrain provides a multi-threaded, steady-state evolutionary
// algorithm trainer with optional speciation, plus two genome encodings to
// train with it.
//
// There are no discrete generations of the classic kind. Worker goroutines
// keep selecting parents, applying evolutionary operators and replacing weak
// members of the population in place. A generation counter advances once as
// many offspring as the population holds have been accepted, and callers
// observe progress one generation at a time through Trainer.Iteration.
//
// Packages:
//
//	ea         trainer, selectors, speciation, configuration and reporters
//	ea/store   run history persistence (in memory, or sqlite with -tags sqlite)
//	intarray   integer-array genome with permutation operators
//	neat       NEAT genome, its operators and compatibility distance
//	neat/nn    feed-forward networks built from NEAT genomes
//
// The NEAT encoding is based on the original paper by Kenneth O. Stanley and
// Risto Miikkulainen and the neat-python implementation
// (https://github.com/CodeReclaimers/neat-python).
//
// Basic usage:
//
//	cfg, err := ea.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//	genomeCfg, err := neat.LoadGenomeConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading genome config: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(rng, genomeCfg, 150, 0)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	trainer, err := ea.NewTrainer(pop, ea.ScoreFunc(evalGenome), cfg,
//		ea.WithCompatibility(neat.Compatibility),
//		ea.WithOperator(&neat.Crossover{}, 0.5),
//		ea.WithOperator(neat.Mutate{}, 0.5),
//	)
//	if err != nil {
//		log.Fatalf("Error creating trainer: %v", err)
//	}
//	defer trainer.Shutdown()
//
//	for i := 0; i < 100; i++ {
//		if err := trainer.Iteration(ctx); err != nil {
//			log.Fatalf("Error running generation: %v", err)
//		}
//		if trainer.BestGenome().Score() > 3.9 {
//			fmt.Println("Solution found!")
//			break
//		}
//	}
package evotrain
