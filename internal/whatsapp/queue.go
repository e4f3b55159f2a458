package whatsapp

import "sync"

// chatQueues una cola FIFO por chat con un único worker que la vacía.
// Los mensajes de un chat se procesan en el orden en que llegaron;
// chats distintos corren en paralelo.
type chatQueues struct {
	mu     sync.Mutex
	queues map[string][]func()
}

func newChatQueues() *chatQueues {
	return &chatQueues{queues: make(map[string][]func())}
}

// enqueue agrega el trabajo al final de la cola del chat. Si la cola no
// existía arranca su worker.
func (q *chatQueues) enqueue(key string, job func()) {
	q.mu.Lock()
	pending, running := q.queues[key]
	q.queues[key] = append(pending, job)
	q.mu.Unlock()

	if !running {
		go q.drain(key)
	}
}

func (q *chatQueues) drain(key string) {
	for {
		q.mu.Lock()
		jobs := q.queues[key]
		if len(jobs) == 0 {
			delete(q.queues, key)
			q.mu.Unlock()
			return
		}
		job := jobs[0]
		q.queues[key] = jobs[1:]
		q.mu.Unlock()

		job()
	}
}

func (q *chatQueues) size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queues)
}
